package ethereum

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/internal/cache"
	"github.com/fd1az/blockterm/internal/logger"
)

// ENSRegistryAddress is the ENS registry on mainnet and most testnets.
var ENSRegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

const ensRegistryABI = `[
	{"inputs":[{"name":"node","type":"bytes32"}],"name":"resolver","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

const ensResolverABI = `[
	{"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"node","type":"bytes32"}],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"name":"text","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

var _ app.NameResolver = (*ENSResolver)(nil)

// ContractCaller runs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// ENSConfig holds resolver settings.
type ENSConfig struct {
	Registry common.Address
	CacheTTL time.Duration
}

// DefaultENSConfig returns the mainnet registry with a 10 minute cache.
func DefaultENSConfig() ENSConfig {
	return ENSConfig{Registry: ENSRegistryAddress, CacheTTL: 10 * time.Minute}
}

// ENSResolver resolves names through the ENS registry contracts.
type ENSResolver struct {
	config   ENSConfig
	caller   ContractCaller
	logger   logger.LoggerInterface
	registry abi.ABI
	resolver abi.ABI

	reverse *cache.Cache[common.Address, *string]
	tracer  trace.Tracer
}

// NewENSResolver creates a resolver issuing calls through caller.
func NewENSResolver(caller ContractCaller, cfg ENSConfig, log logger.LoggerInterface) (*ENSResolver, error) {
	registry, err := abi.JSON(strings.NewReader(ensRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	resolver, err := abi.JSON(strings.NewReader(ensResolverABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse resolver ABI: %w", err)
	}
	if cfg.Registry == (common.Address{}) {
		cfg.Registry = ENSRegistryAddress
	}

	return &ENSResolver{
		config:   cfg,
		caller:   caller,
		logger:   log,
		registry: registry,
		resolver: resolver,
		reverse:  cache.New[common.Address, *string](time.Minute),
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// NameHash computes the EIP-137 node of name. Labels are lowercased; full
// UTS-46 normalisation is left to the caller.
func NameHash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(strings.ToLower(name), ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), label.Bytes())
	}
	return node
}

// ReverseNode is the node holding the primary name of addr.
func ReverseNode(addr common.Address) common.Hash {
	return NameHash(hex.EncodeToString(addr.Bytes()) + ".addr.reverse")
}

// LookupAddress returns the primary name of addr. The name is only
// returned when it resolves back to addr.
func (r *ENSResolver) LookupAddress(ctx context.Context, addr common.Address) (*string, error) {
	if name, ok := r.reverse.Get(ctx, addr); ok {
		return name, nil
	}

	ctx, span := r.tracer.Start(ctx, "ens.lookup_address",
		trace.WithAttributes(attribute.String("address", addr.Hex())))
	defer span.End()

	node := ReverseNode(addr)
	var name string
	found, err := r.query(ctx, node, "name", &name, node)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reverse lookup failed")
		return nil, err
	}
	if !found || name == "" {
		r.reverse.Set(ctx, addr, nil, r.config.CacheTTL)
		return nil, nil
	}

	fwd, err := r.ResolveName(ctx, name)
	if err != nil {
		return nil, err
	}
	if fwd == nil || *fwd != addr {
		r.logger.Debug(ctx, "ens reverse record not verified", "address", addr.Hex(), "name", name)
		r.reverse.Set(ctx, addr, nil, r.config.CacheTTL)
		return nil, nil
	}

	span.SetAttributes(attribute.String("name", name))
	span.SetStatus(codes.Ok, "resolved")
	r.reverse.Set(ctx, addr, &name, r.config.CacheTTL)
	return &name, nil
}

// ResolveName returns the address name points to, or nil.
func (r *ENSResolver) ResolveName(ctx context.Context, name string) (*common.Address, error) {
	if !validName(name) {
		return nil, apperror.Validation(apperror.CodeENSInvalidName, name)
	}
	node := NameHash(name)

	var addr common.Address
	found, err := r.query(ctx, node, "addr", &addr, node)
	if err != nil || !found || addr == (common.Address{}) {
		return nil, err
	}
	return &addr, nil
}

// Avatar returns the avatar text record of name, or nil.
func (r *ENSResolver) Avatar(ctx context.Context, name string) (*string, error) {
	node := NameHash(name)

	var avatar string
	found, err := r.query(ctx, node, "text", &avatar, node, "avatar")
	if err != nil || !found || avatar == "" {
		return nil, err
	}
	return &avatar, nil
}

// Close stops the cache janitor.
func (r *ENSResolver) Close() {
	r.reverse.Close()
}

// query looks up the resolver of node and calls method on it. found is
// false when node has no resolver or the resolver returns nothing.
func (r *ENSResolver) query(ctx context.Context, node common.Hash, method string, out any, args ...any) (bool, error) {
	resolver, err := r.resolverOf(ctx, node)
	if err != nil || resolver == (common.Address{}) {
		return false, err
	}

	data, err := r.resolver.Pack(method, args...)
	if err != nil {
		return false, apperror.New(apperror.CodeENSLookupFailed, apperror.WithContext(method), apperror.WithCause(err))
	}
	res, err := r.caller.CallContract(ctx, resolver, data)
	if err != nil {
		return false, apperror.Wrap(err, apperror.CodeENSLookupFailed, method)
	}
	if len(res) == 0 {
		return false, nil
	}
	if err := r.resolver.UnpackIntoInterface(out, method, res); err != nil {
		return false, apperror.New(apperror.CodeENSLookupFailed, apperror.WithContext(method), apperror.WithCause(err))
	}
	return true, nil
}

func (r *ENSResolver) resolverOf(ctx context.Context, node common.Hash) (common.Address, error) {
	data, err := r.registry.Pack("resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	res, err := r.caller.CallContract(ctx, r.config.Registry, data)
	if err != nil {
		return common.Address{}, apperror.Wrap(err, apperror.CodeENSLookupFailed, "resolver")
	}
	if len(res) == 0 {
		return common.Address{}, nil
	}
	var resolver common.Address
	if err := r.registry.UnpackIntoInterface(&resolver, "resolver", res); err != nil {
		return common.Address{}, apperror.New(apperror.CodeENSLookupFailed, apperror.WithContext("resolver"), apperror.WithCause(err))
	}
	return resolver, nil
}

func validName(name string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return false
		}
	}
	return true
}
