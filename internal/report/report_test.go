package report

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

type item struct {
	name string
	id   string
}

func (i item) ItemName() string { return i.name }
func (i item) ItemID() string   { return i.id }

var (
	lamp   = item{name: "Lamp", id: "d1"}
	kettle = item{name: "Kettle", id: "d2"}
)

func TestFull(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		items []item
		want  string
	}{
		{
			name:  "single device",
			kind:  KindDevice,
			items: []item{lamp},
			want:  "Отчет для устройств Device: Имя Lamp, id d1",
		},
		{
			name:  "two rooms",
			kind:  KindRoom,
			items: []item{{name: "Kitchen", id: "r1"}, {name: "Hall", id: "r2"}},
			want:  "Отчет для устройств Room: Имя Kitchen, id r1 Имя Hall, id r2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Full(tt.kind, tt.items)
			if err != nil {
				t.Fatalf("Full() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Full() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	got, err := IDs(KindRoom, []item{{name: "Kitchen", id: "r1"}, {name: "Hall", id: "r2"}})
	if err != nil {
		t.Fatalf("IDs() error = %v", err)
	}
	if want := "Список id для устройств Room: id r1 id r2"; got != want {
		t.Errorf("IDs() = %q, want %q", got, want)
	}
}

func TestIDList_KeepsTrailingSpace(t *testing.T) {
	got, err := IDList([]item{lamp, kettle})
	if err != nil {
		t.Fatalf("IDList() error = %v", err)
	}
	if want := []string{"d1 ", "d2 "}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDList() = %q, want %q", got, want)
	}
}

func TestNameIndex_LastWriteWins(t *testing.T) {
	got, err := NameIndex([]item{lamp, kettle, {name: "Lamp", id: "d3"}})
	if err != nil {
		t.Fatalf("NameIndex() error = %v", err)
	}
	want := map[string]string{"Lamp": "d3", "Kettle": "d2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NameIndex() = %v, want %v", got, want)
	}
}

// Every mode must reject an empty slice, whatever the kind.
func TestEmptyInput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		kind := rapid.SampledFrom([]Kind{KindDevice, KindRoom, KindHouse}).Draw(rt, "kind")
		var empty []item
		if rapid.Bool().Draw(rt, "nonNilEmpty") {
			empty = []item{}
		}

		if _, err := Full(kind, empty); !errors.Is(err, ErrEmptyInput) {
			rt.Fatalf("Full() error = %v, want ErrEmptyInput", err)
		}
		if _, err := IDs(kind, empty); !errors.Is(err, ErrEmptyInput) {
			rt.Fatalf("IDs() error = %v, want ErrEmptyInput", err)
		}
		if _, err := IDList(empty); !errors.Is(err, ErrEmptyInput) {
			rt.Fatalf("IDList() error = %v, want ErrEmptyInput", err)
		}
		if _, err := NameIndex(empty); !errors.Is(err, ErrEmptyInput) {
			rt.Fatalf("NameIndex() error = %v, want ErrEmptyInput", err)
		}
	})
}

// Non-empty input always succeeds and mentions every id.
func TestModes_CoverEveryItem(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		items := make([]item, n)
		for i := range items {
			items[i] = item{
				name: rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "name"),
				id:   rapid.StringMatching(`[0-9a-f]{8}`).Draw(rt, "id"),
			}
		}

		full, err := Full(KindDevice, items)
		if err != nil {
			rt.Fatalf("Full() error = %v", err)
		}
		ids, err := IDList(items)
		if err != nil {
			rt.Fatalf("IDList() error = %v", err)
		}
		if len(ids) != n {
			rt.Fatalf("IDList() returned %d ids, want %d", len(ids), n)
		}
		for i, it := range items {
			if !strings.Contains(full, ", id "+it.id) {
				rt.Fatalf("Full() missing id %s", it.id)
			}
			if ids[i] != it.id+" " {
				rt.Fatalf("IDList()[%d] = %q, want %q", i, ids[i], it.id+" ")
			}
		}
	})
}

func TestHouseReport(t *testing.T) {
	house := item{name: "Home", id: "h1"}

	tests := []struct {
		name  string
		rooms [][]item
		want  string
	}{
		{
			name:  "one room",
			rooms: [][]item{{lamp}},
			want:  "В доме Home установлены следующие приборы: \nОтчет для устройств Device: Имя Lamp, id d1",
		},
		{
			name:  "empty room skipped",
			rooms: [][]item{{}, {lamp, kettle}},
			want:  "В доме Home установлены следующие приборы: \nОтчет для устройств Device: Имя Lamp, id d1 Имя Kettle, id d2",
		},
		{
			name:  "no rooms",
			rooms: nil,
			want:  "В доме Home установлены следующие приборы: \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HouseReport(house, tt.rooms...)
			if err != nil {
				t.Fatalf("HouseReport() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HouseReport() = %q, want %q", got, tt.want)
			}
		})
	}
}
