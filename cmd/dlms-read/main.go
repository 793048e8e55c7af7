// Command dlms-read sends one request telegram to a DLMS/COSEM meter over
// an HDLC link and prints the response as hex. It negotiates the connection,
// performs the exchange, and releases the link.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dlmsio/go-dlms/logger"
	"github.com/dlmsio/go-dlms/serial"
)

var CLI struct {
	Host string `arg:"" help:"Meter or serial bridge address."`
	Port int    `arg:"" help:"TCP port."`

	Request        string        `help:"Request telegram as a hex string." required:""`
	ClientAddress  uint8         `help:"HDLC client address." default:"16"`
	ServerLogical  uint8         `help:"Server logical address." default:"1"`
	ServerPhysical int32         `help:"Server physical address for multi-drop setups; -1 for none." default:"-1"`
	Timeout        time.Duration `help:"Response timeout." default:"5s"`
	Verbose        bool          `help:"Enable debug logging." short:"v"`
}

func main() {
	kong.Parse(&CLI)

	if CLI.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	telegram, err := hex.DecodeString(CLI.Request)
	if err != nil {
		logger.Fatal("invalid request hex string", "error", err)
	}

	opts := []serial.ConnOption{
		serial.WithClientAddress(CLI.ClientAddress),
		serial.WithResponseTimeout(CLI.Timeout),
	}
	if CLI.ServerPhysical >= 0 {
		opts = append(opts, serial.WithServerPhysicalAddress(uint16(CLI.ServerLogical), uint16(CLI.ServerPhysical)))
	} else {
		opts = append(opts, serial.WithServerAddress(CLI.ServerLogical))
	}

	cfg, err := serial.NewConnectionConfig(CLI.Host, CLI.Port, opts...)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	client := serial.NewClient(cfg)

	if err := client.Connect(ctx); err != nil {
		logger.Fatal("connect failed", "error", err)
	}

	response, err := client.Send(ctx, telegram)
	if err != nil {
		_ = client.Close()
		logger.Fatal("exchange failed", "error", err)
	}

	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("disconnect failed", "error", err)
	}

	fmt.Println(hex.EncodeToString(response))
}
