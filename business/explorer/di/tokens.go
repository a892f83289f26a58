// Package di contains dependency injection tokens for the explorer context.
package di

import (
	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/infra/ethereum"
	"github.com/fd1az/blockterm/business/explorer/infra/etherscan"
	"github.com/fd1az/blockterm/business/explorer/infra/headwatch"
	"github.com/fd1az/blockterm/internal/di"
)

// Public service tokens - used by the UI and main
var (
	Orchestrator = di.NewToken[*app.Orchestrator]("explorer.Orchestrator")
	State        = di.NewToken[*app.State]("explorer.State")
	Notifier     = di.NewToken[*app.NotifierSlot]("explorer.Notifier")
)

// Private dependency tokens - internal to the explorer module
var (
	ChainClient  = di.NewToken[*ethereum.Client]("explorer:chainClient")
	ENSResolver  = di.NewToken[*ethereum.ENSResolver]("explorer:ensResolver")
	Explorer     = di.NewToken[*etherscan.Client]("explorer:etherscan")
	InputDecoder = di.NewToken[app.InputDecoder]("explorer:inputDecoder")
	HeadWatcher  = di.NewToken[*headwatch.Watcher]("explorer:headWatcher")
)

func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetState(c di.ServiceRegistry) *app.State {
	return di.GetToken(c, State)
}

func GetNotifier(c di.ServiceRegistry) *app.NotifierSlot {
	return di.GetToken(c, Notifier)
}

func GetChainClient(c di.ServiceRegistry) *ethereum.Client {
	return di.GetToken(c, ChainClient)
}

func GetENSResolver(c di.ServiceRegistry) *ethereum.ENSResolver {
	return di.GetToken(c, ENSResolver)
}

func GetExplorer(c di.ServiceRegistry) *etherscan.Client {
	return di.GetToken(c, Explorer)
}

func GetInputDecoder(c di.ServiceRegistry) app.InputDecoder {
	return di.GetToken(c, InputDecoder)
}

func GetHeadWatcher(c di.ServiceRegistry) *headwatch.Watcher {
	return di.GetToken(c, HeadWatcher)
}
