// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package main

import (
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/pitchboard/pitchboard/internal/auth"
)

func newTokenCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint tokens for existing users",
	}

	var userID, kind string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Print a signed token for a user",
		Long: `Print a signed token for an existing user. Key tokens never
expire and are meant for machine clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ulid.Parse(userID)
			if err != nil {
				return oops.Code("INVALID_USER_ID").With("user", userID).Wrap(err)
			}
			k := auth.TokenKind(kind)
			if !k.Valid() {
				return oops.Code("INVALID_TOKEN_KIND").
					With("kind", kind).
					Errorf("kind must be %q or %q", auth.KindKey, auth.KindAuth)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cfg, deps)
			ctx := cmd.Context()

			users, closeUsers, err := deps.OpenUsers(ctx, cfg, deps.logger)
			if err != nil {
				return err
			}
			defer closeUsers()

			// Issuing never consults the revocation set.
			issuing := *cfg
			issuing.SingleUseTokens = false
			svc, err := newAuthService(&issuing, users, nil, deps.logger)
			if err != nil {
				return err
			}

			user, err := svc.User(ctx, id)
			if err != nil {
				return err
			}

			token, err := svc.IssueToken(user, k)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "user ID (ULID)")
	issue.Flags().StringVar(&kind, "kind", string(auth.KindKey), "token kind (key or auth)")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}
