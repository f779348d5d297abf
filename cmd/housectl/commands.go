package main

import (
	"context"
	"time"

	"github.com/paularlott/cli"

	"github.com/nerrad567/smarthouse-core/pkg/client"
)

const defaultServer = "http://127.0.0.1:8080"

func newRootCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:        "housectl",
		Version:     version,
		Usage:       "SmartHouse Core command line client",
		Description: "Manage houses, rooms and devices on a SmartHouse Core server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "server",
				Aliases:      []string{"s"},
				Usage:        "Server URL",
				DefaultValue: defaultServer,
				EnvVars:      []string{"SMARTHOUSE_SERVER"},
				Global:       true,
			},
			&cli.IntFlag{
				Name:         "timeout",
				Usage:        "Request timeout in seconds",
				DefaultValue: 10,
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			timeout := time.Duration(cmd.GetInt("timeout")) * time.Second
			a.api = client.New(cmd.GetString("server"), client.WithTimeout(timeout))
			return ctx, nil
		},
		Commands: []*cli.Command{
			houseCommand(a),
			roomCommand(a),
			deviceCommand(a),
			{
				Name:        "report",
				Usage:       "Print the device report of a house",
				Description: "List every device of a house grouped by room",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "house-id", Required: true},
				},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.report(ctx, cmd.GetStringArg("house-id"))
				},
			},
		},
	}
}

func houseCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:        "house",
		Usage:       "House commands",
		Description: "Manage houses",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all houses",
				Run: func(ctx context.Context, _ *cli.Command) error {
					return a.houseList(ctx)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one house",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.houseGet(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:  "add",
				Usage: "Create a house",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "House name", Required: true},
				},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.houseAdd(ctx, cmd.GetString("name"))
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a house without rooms",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.houseRemove(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:      "rooms",
				Usage:     "List the rooms of a house",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.houseRooms(ctx, cmd.GetStringArg("id"))
				},
			},
		},
	}
}

func roomCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:        "room",
		Usage:       "Room commands",
		Description: "Manage rooms",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all rooms",
				Run: func(ctx context.Context, _ *cli.Command) error {
					return a.roomList(ctx)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one room",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.roomGet(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:  "add",
				Usage: "Create a room in a house",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Room name", Required: true},
					&cli.StringFlag{Name: "house", Usage: "House id", Required: true},
				},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.roomAdd(ctx, cmd.GetString("name"), cmd.GetString("house"))
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a room without devices",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.roomRemove(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:      "devices",
				Usage:     "List the devices of a room",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.roomDevices(ctx, cmd.GetStringArg("id"))
				},
			},
		},
	}
}

func deviceCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:        "device",
		Usage:       "Device commands",
		Description: "Manage and control devices",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all devices",
				Run: func(ctx context.Context, _ *cli.Command) error {
					return a.deviceList(ctx)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one device",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.deviceGet(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:  "add",
				Usage: "Create a device in a room",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Device name", Required: true},
					&cli.StringFlag{Name: "type", Usage: "Device type", Required: true},
					&cli.StringFlag{Name: "address", Usage: "Device address"},
					&cli.StringFlag{Name: "room", Usage: "Room id", Required: true},
				},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.deviceAdd(ctx, client.NewDevice{
						Name:    cmd.GetString("name"),
						Type:    cmd.GetString("type"),
						Address: optional(cmd.GetString("address")),
						Room:    cmd.GetString("room"),
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a device",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.deviceRemove(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:      "toggle",
				Usage:     "Flip a device on or off",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.deviceToggle(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:      "var",
				Usage:     "Print a device's variable",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					return a.deviceVar(ctx, cmd.GetStringArg("id"))
				},
			},
			{
				Name:        "watch",
				Usage:       "Poll a device and print every change",
				Description: "Poll a device until interrupted and print a line whenever its state or variable changes",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "interval", Usage: "Poll interval in seconds", DefaultValue: 1},
					&cli.IntFlag{Name: "count", Usage: "Stop after this many polls (0 = forever)", DefaultValue: 0},
				},
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", Required: true}},
				Run: func(ctx context.Context, cmd *cli.Command) error {
					interval := time.Duration(cmd.GetInt("interval")) * time.Second
					return a.deviceWatch(ctx, cmd.GetStringArg("id"), interval, cmd.GetInt("count"))
				},
			},
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
