// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-credstore/pkg/nodeclient"
)

var errNoEndpoint = errors.New("no node endpoint: pass --endpoint or set node.endpoint")

func newNodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Query an Ethereum node",
	}

	var (
		endpoint string
		timeout  time.Duration
	)
	info := &cobra.Command{
		Use:   "info",
		Short: "Print the chain id and latest block number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				endpoint = a.cfg.Node.Endpoint
			}
			if endpoint == "" {
				return errNoEndpoint
			}
			if timeout == 0 {
				timeout = a.cfg.Node.Timeout
			}

			f := &nodeclient.Factory{Timeout: timeout, Logger: a.log}
			client, err := f.Dial(cmd.Context(), endpoint)
			if err != nil {
				return err
			}
			defer client.Close()

			chainID, err := client.ChainID(cmd.Context())
			if err != nil {
				return err
			}
			block, err := client.BlockNumber(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().PrintFields([][2]string{
				{"Endpoint", client.Endpoint()},
				{"Chain ID", chainID.String()},
				{"Block", strconv.FormatUint(block, 10)},
			})
		},
	}
	info.Flags().StringVar(&endpoint, "endpoint", "", "node endpoint (http, ws or IPC path)")
	info.Flags().DurationVar(&timeout, "timeout", 0, "dial timeout")
	cmd.AddCommand(info)
	return cmd
}
