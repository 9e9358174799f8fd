package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/theater-seat-booking/internal/utils"
)

var (
	tokenSubject  string
	tokenRole     string
	tokenTheaters string
	tokenTTL      int
)

// tokenCmd issues API access tokens.  The API has no login endpoint;
// operators mint tokens here with the shared jwt.secret.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token",
	Example: `  theaterctl token --subject alice --role admin
  theaterctl token --subject box-office-1 --role staff --theaters 1,3 --ttl 480`,
	RunE: func(cmd *cobra.Command, args []string) error {
		theaters, err := parseIDs(tokenTheaters)
		if err != nil {
			return err
		}
		if tokenRole == utils.RoleStaff && len(theaters) == 0 {
			return fmt.Errorf("a staff token needs --theaters")
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWT.TTLMin
		}
		tok, err := utils.NewAccessToken(cfg.JWT.Secret, tokenSubject, tokenRole, theaters, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
		log.WithField("expires_at", tok.Exp).WithField("role", tokenRole).Debug("token issued")
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "operator name stored in the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", utils.RoleStaff, "admin or staff")
	tokenCmd.Flags().StringVar(&tokenTheaters, "theaters", "", "comma separated theater ids a staff token may act on")
	tokenCmd.Flags().IntVar(&tokenTTL, "ttl", 0, "lifetime in minutes (default jwt.ttl_min)")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func parseIDs(s string) ([]uint64, error) {
	var out []uint64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid theater id %q", p)
		}
		out = append(out, id)
	}
	return out, nil
}
