// Package domain contains the navigation model, fetch commands and value
// types of the explorer context.
package domain

// DefaultHeaderSize is the number of non-selectable rows above list data
// (title and column header).
const DefaultHeaderSize = 2

// SelectionList is an ordered list with a wraparound cursor. The cursor
// indexes rows, so a selection always falls in [headerSize, headerSize+len).
type SelectionList[T any] struct {
	items      []T
	selected   int
	hasCursor  bool
	headerSize int
}

// NewSelectionList creates a list with nothing selected.
func NewSelectionList[T any](items []T, headerSize int) *SelectionList[T] {
	if headerSize < 0 {
		headerSize = 0
	}
	return &SelectionList[T]{items: items, headerSize: headerSize}
}

// Next moves the cursor down, wrapping from the last row to the first.
// On an empty list the selection is cleared.
func (l *SelectionList[T]) Next() {
	if len(l.items) == 0 {
		l.hasCursor = false
		return
	}
	switch {
	case !l.hasCursor:
		l.selected = l.headerSize
	case l.selected >= l.lastIndex():
		l.selected = l.headerSize
	default:
		l.selected++
	}
	l.hasCursor = true
}

// Previous moves the cursor up, wrapping from the first row to the last.
// On an empty list the selection is cleared.
func (l *SelectionList[T]) Previous() {
	if len(l.items) == 0 {
		l.hasCursor = false
		return
	}
	switch {
	case !l.hasCursor:
		l.selected = l.headerSize
	case l.selected <= l.headerSize:
		l.selected = l.lastIndex()
	default:
		l.selected--
	}
	l.hasCursor = true
}

// Select sets the cursor to data index i. Out-of-range values clear it.
func (l *SelectionList[T]) Select(i int) {
	if i < 0 || i >= len(l.items) {
		l.hasCursor = false
		return
	}
	l.selected = l.headerSize + i
	l.hasCursor = true
}

// Unselect clears the cursor.
func (l *SelectionList[T]) Unselect() {
	l.hasCursor = false
}

// Selected returns the row index of the cursor.
func (l *SelectionList[T]) Selected() (int, bool) {
	return l.selected, l.hasCursor
}

// SelectedDataIndex returns the cursor position relative to the data rows.
func (l *SelectionList[T]) SelectedDataIndex() (int, bool) {
	if !l.hasCursor {
		return 0, false
	}
	return l.selected - l.headerSize, true
}

// SelectedItem returns the item under the cursor.
func (l *SelectionList[T]) SelectedItem() (T, bool) {
	var zero T
	i, ok := l.SelectedDataIndex()
	if !ok || i >= len(l.items) {
		return zero, false
	}
	return l.items[i], true
}

// Items returns the underlying items. Callers must not modify the slice.
func (l *SelectionList[T]) Items() []T { return l.items }

// Len is zero for a nil list.
func (l *SelectionList[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

func (l *SelectionList[T]) HeaderSize() int { return l.headerSize }

// Clone returns a copy sharing the item values but not the cursor.
func (l *SelectionList[T]) Clone() *SelectionList[T] {
	if l == nil {
		return nil
	}
	items := make([]T, len(l.items))
	copy(items, l.items)
	return &SelectionList[T]{
		items:      items,
		selected:   l.selected,
		hasCursor:  l.hasCursor,
		headerSize: l.headerSize,
	}
}

func (l *SelectionList[T]) lastIndex() int {
	return l.headerSize + len(l.items) - 1
}
