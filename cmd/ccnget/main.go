// Command ccnget retrieves the first object matching a name prefix and
// writes its payload to stdout (§6). Exits 0 on success, 1 on any error
// (including a timeout with nothing found).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Atsuko87/ccnx-sub001/client"
	"github.com/Atsuko87/ccnx-sub001/name"
)

var (
	addr    string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ccnget NAME",
	Short: "Retrieve the first Content Object matching a name prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "forwarder", "127.0.0.1:4485", "forwarder address")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 4*time.Second, "how long to wait for a reply")
}

func run(cmd *cobra.Command, args []string) error {
	n, err := name.FromURI(args[0])
	if err != nil {
		return fmt.Errorf("ccnget: bad name: %w", err)
	}

	c, err := client.Dial(addr)
	if err != nil {
		return fmt.Errorf("ccnget: %w", err)
	}
	defer c.Close()

	payload, err := c.Get(n, timeout)
	if err != nil {
		return fmt.Errorf("ccnget: %w", err)
	}
	_, err = os.Stdout.Write(payload)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
