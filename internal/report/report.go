package report

import (
	"errors"
	"strings"
)

// ErrEmptyInput is returned by every report mode when given no items.
var ErrEmptyInput = errors.New("report: empty input")

// Item is anything that can appear in a report: it has a display name and
// an identifier.
type Item interface {
	ItemName() string
	ItemID() string
}

// Kind labels the entity type a batch of items belongs to.
type Kind string

// Kinds known to the reports.
const (
	KindDevice Kind = "Device"
	KindRoom   Kind = "Room"
	KindHouse  Kind = "House"
)

// Full renders a header for kind followed by " Имя {name}, id {id}" for
// each item.
func Full[T Item](kind Kind, items []T) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyInput
	}

	var b strings.Builder
	b.WriteString("Отчет для устройств ")
	b.WriteString(string(kind))
	b.WriteString(":")
	for _, it := range items {
		b.WriteString(" Имя ")
		b.WriteString(it.ItemName())
		b.WriteString(", id ")
		b.WriteString(it.ItemID())
	}
	return b.String(), nil
}

// IDs renders a header for kind followed by " id {id}" for each item.
func IDs[T Item](kind Kind, items []T) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyInput
	}

	var b strings.Builder
	b.WriteString("Список id для устройств ")
	b.WriteString(string(kind))
	b.WriteString(":")
	for _, it := range items {
		b.WriteString(" id ")
		b.WriteString(it.ItemID())
	}
	return b.String(), nil
}

// IDList returns one element per item. Each element is the id followed by a
// single space, which existing clients strip.
func IDList[T Item](items []T) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID()+" ")
	}
	return ids, nil
}

// NameIndex maps item names to ids. When names repeat, the later item wins.
func NameIndex[T Item](items []T) (map[string]string, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}

	index := make(map[string]string, len(items))
	for _, it := range items {
		index[it.ItemName()] = it.ItemID()
	}
	return index, nil
}
