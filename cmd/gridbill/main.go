// Command gridbill is the CLI companion of gridbilld: it publishes commands
// to the broker and prints the ledger's reply.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/gridbill/bus"
	"github.com/xraph/gridbill/command"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type busFlags struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func (f *busFlags) client() (*bus.Client, *bus.Bus, error) {
	var cfg bus.Config
	cfg.Server.Host = f.host
	cfg.Server.Port = f.port
	cfg.Server.Username = f.username
	cfg.Server.Password = f.password

	b, err := bus.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return bus.NewClient(b, bus.WithCallTimeout(f.timeout)), b, nil
}

func rootCommand() *cobra.Command {
	flags := &busFlags{}

	cmd := &cobra.Command{
		Use:           "gridbill",
		Short:         "Send billing commands to a running gridbilld",
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.host, "host", "localhost", "AMQP broker host")
	cmd.PersistentFlags().IntVar(&flags.port, "port", 5672, "AMQP broker port")
	cmd.PersistentFlags().StringVar(&flags.username, "username", "guest", "AMQP username")
	cmd.PersistentFlags().StringVar(&flags.password, "password", "guest", "AMQP password")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", bus.DefaultCallTimeout, "reply timeout")

	cmd.AddCommand(
		addMeterCommand(flags),
		addReadingCommand(flags),
		addTariffCommand(flags),
		setTariffCommand(flags),
	)

	return cmd
}

// call publishes one command and prints the response slot.
func call(cmd *cobra.Command, flags *busFlags, data interface{}) error {
	cmd.SilenceUsage = true

	client, b, err := flags.client()
	if err != nil {
		return err
	}
	defer b.Close()

	raw, err := client.Call(cmd.Context(), data)
	if err != nil {
		return err
	}

	var reply struct {
		Response interface{} `json:"response"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("malformed reply %q: %w", raw, err)
	}

	if reply.Response == nil {
		fmt.Println("ok")
	} else {
		fmt.Println(reply.Response)
	}
	return nil
}

func addMeterCommand(flags *busFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-meter <meter-id>",
		Short: "Register a meter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meterID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("meter id must be an integer: %w", err)
			}
			return call(cmd, flags, command.AddMeter{MeterID: meterID})
		},
	}
}

func addReadingCommand(flags *busFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-reading <meter-id> <day> <night>",
		Short: "Record a meter reading",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			meterID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("meter id must be an integer: %w", err)
			}
			day, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("day value must be a number: %w", err)
			}
			night, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("night value must be a number: %w", err)
			}
			return call(cmd, flags, command.AddReading{MeterID: meterID, Day: day, Night: night})
		},
	}
}

func addTariffCommand(flags *busFlags) *cobra.Command {
	var activate bool

	cmd := &cobra.Command{
		Use:   "add-tariff <day-rate> <night-rate>",
		Short: "Record a tariff version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("day rate must be a number: %w", err)
			}
			night, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("night rate must be a number: %w", err)
			}
			return call(cmd, flags, command.AddTariff{
				DayTariff:    day,
				NightTariff:  night,
				SetAsCurrent: activate,
			})
		},
	}

	cmd.Flags().BoolVar(&activate, "activate", false, "make this the current tariff")

	return cmd
}

func setTariffCommand(flags *busFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set-tariff <tariff-id>",
		Short: "Activate an existing tariff version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, flags, command.SetTariff{TariffID: args[0]})
		},
	}
}
