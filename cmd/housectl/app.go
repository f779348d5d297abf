package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/smarthouse-core/pkg/client"
)

// app holds the state shared by every command action.
type app struct {
	out io.Writer
	api *client.Client
}

// isEmpty reports whether err is the server's answer to listing an empty
// collection.
func isEmpty(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) &&
		apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(apiErr.Body, "empty input")
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

// ─── Houses ───

func (a *app) houseList(ctx context.Context) error {
	ids, err := a.api.HouseIDs(ctx)
	if isEmpty(err) {
		fmt.Fprintln(a.out, "no houses")
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing houses: %w", err)
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME")
	for _, id := range ids {
		h, err := a.api.House(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching house %s: %w", id, err)
		}
		fmt.Fprintf(tw, "%s\t%s\n", h.ID, h.Name)
	}
	return tw.Flush()
}

func (a *app) houseGet(ctx context.Context, id string) error {
	h, err := a.api.House(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching house: %w", err)
	}
	a.printHouse(h)
	return nil
}

func (a *app) houseAdd(ctx context.Context, name string) error {
	h, err := a.api.CreateHouse(ctx, client.NewHouse{Name: name})
	if err != nil {
		return fmt.Errorf("creating house: %w", err)
	}
	fmt.Fprintf(a.out, "created house %s\n", h.ID)
	return nil
}

func (a *app) houseRemove(ctx context.Context, id string) error {
	h, err := a.api.RemoveHouse(ctx, id)
	if err != nil {
		return fmt.Errorf("removing house: %w", err)
	}
	fmt.Fprintf(a.out, "removed house %s (%s)\n", h.ID, h.Name)
	return nil
}

func (a *app) houseRooms(ctx context.Context, id string) error {
	index, err := a.api.HouseRooms(ctx, id)
	if isEmpty(err) {
		fmt.Fprintln(a.out, "no rooms")
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing rooms of house: %w", err)
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := a.table()
	fmt.Fprintln(tw, "NAME\tID")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, index[name])
	}
	return tw.Flush()
}

func (a *app) printHouse(h *client.House) {
	tw := a.table()
	fmt.Fprintf(tw, "ID:\t%s\n", h.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", h.Name)
	tw.Flush()
}

// ─── Rooms ───

// roomList prints the server's room id report as is.
func (a *app) roomList(ctx context.Context) error {
	text, err := a.api.RoomIDs(ctx)
	if isEmpty(err) {
		fmt.Fprintln(a.out, "no rooms")
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing rooms: %w", err)
	}
	fmt.Fprint(a.out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(a.out)
	}
	return nil
}

func (a *app) roomGet(ctx context.Context, id string) error {
	r, err := a.api.Room(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching room: %w", err)
	}
	tw := a.table()
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", r.Name)
	fmt.Fprintf(tw, "House:\t%s\n", r.House)
	return tw.Flush()
}

func (a *app) roomAdd(ctx context.Context, name, house string) error {
	r, err := a.api.CreateRoom(ctx, client.NewRoom{Name: name, House: house})
	if err != nil {
		return fmt.Errorf("creating room: %w", err)
	}
	fmt.Fprintf(a.out, "created room %s\n", r.ID)
	return nil
}

func (a *app) roomRemove(ctx context.Context, id string) error {
	r, err := a.api.RemoveRoom(ctx, id)
	if err != nil {
		return fmt.Errorf("removing room: %w", err)
	}
	fmt.Fprintf(a.out, "removed room %s (%s)\n", r.ID, r.Name)
	return nil
}

func (a *app) roomDevices(ctx context.Context, id string) error {
	ids, err := a.api.RoomDevices(ctx, id)
	if isEmpty(err) {
		fmt.Fprintln(a.out, "no devices")
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing devices of room: %w", err)
	}
	return a.printDevices(ctx, ids)
}

// ─── Devices ───

func (a *app) deviceList(ctx context.Context) error {
	ids, err := a.api.DeviceIDs(ctx)
	if isEmpty(err) {
		fmt.Fprintln(a.out, "no devices")
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	return a.printDevices(ctx, ids)
}

func (a *app) printDevices(ctx context.Context, ids []string) error {
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATE\tVARIABLE\tROOM")
	for _, id := range ids {
		d, err := a.api.Device(ctx, id)
		if err != nil {
			return fmt.Errorf("fetching device %s: %w", id, err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			d.ID, d.Name, d.Type, onOff(d.State), d.Variable, d.Room)
	}
	return tw.Flush()
}

func (a *app) deviceGet(ctx context.Context, id string) error {
	d, err := a.api.Device(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching device: %w", err)
	}
	address := "-"
	if d.Address != nil {
		address = *d.Address
	}
	tw := a.table()
	fmt.Fprintf(tw, "ID:\t%s\n", d.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", d.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", d.Type)
	fmt.Fprintf(tw, "Address:\t%s\n", address)
	fmt.Fprintf(tw, "State:\t%s\n", onOff(d.State))
	fmt.Fprintf(tw, "Variable:\t%d\n", d.Variable)
	fmt.Fprintf(tw, "Room:\t%s\n", d.Room)
	return tw.Flush()
}

func (a *app) deviceAdd(ctx context.Context, nd client.NewDevice) error {
	d, err := a.api.CreateDevice(ctx, nd)
	if err != nil {
		return fmt.Errorf("creating device: %w", err)
	}
	fmt.Fprintf(a.out, "created device %s\n", d.ID)
	return nil
}

func (a *app) deviceRemove(ctx context.Context, id string) error {
	d, err := a.api.RemoveDevice(ctx, id)
	if err != nil {
		return fmt.Errorf("removing device: %w", err)
	}
	fmt.Fprintf(a.out, "removed device %s (%s)\n", d.ID, d.Name)
	return nil
}

func (a *app) deviceToggle(ctx context.Context, id string) error {
	d, err := a.api.ToggleDevice(ctx, id)
	if err != nil {
		return fmt.Errorf("toggling device: %w", err)
	}
	fmt.Fprintf(a.out, "%s is now %s\n", d.Name, onOff(d.State))
	return nil
}

func (a *app) deviceVar(ctx context.Context, id string) error {
	v, err := a.api.DeviceVariable(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching device variable: %w", err)
	}
	fmt.Fprintln(a.out, v)
	return nil
}

// deviceWatch polls a device and prints a line for the first reading and
// for every change of state or variable. It stops when ctx is done or after
// count polls when count is positive.
func (a *app) deviceWatch(ctx context.Context, id string, interval time.Duration, count int) error {
	if interval <= 0 {
		interval = time.Second
	}

	var last *client.Device
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for polls := 0; count <= 0 || polls < count; polls++ {
		if polls > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}

		d, err := a.api.Device(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("polling device: %w", err)
		}
		if last == nil || last.State != d.State || last.Variable != d.Variable {
			fmt.Fprintf(a.out, "%s %s state=%s variable=%d\n",
				time.Now().Format(time.TimeOnly), d.Name, onOff(d.State), d.Variable)
		}
		last = d
	}
	return nil
}

// ─── Reports ───

func (a *app) report(ctx context.Context, houseID string) error {
	text, err := a.api.Report(ctx, houseID)
	if err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}
	fmt.Fprint(a.out, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(a.out)
	}
	return nil
}

func onOff(state bool) string {
	if state {
		return "on"
	}
	return "off"
}
