// Command admintoken prints an operator JWT for the /v1/admin endpoints,
// signed with JWT_SECRET.
//
//	admintoken -sub alice -ttl 30m
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-reconciler/internal/logging"
	"github.com/iliyamo/cinema-reconciler/internal/utils"
)

func main() {
	_ = godotenv.Load()
	sub := flag.String("sub", "operator", "subject recorded in admin logs")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	logging.Init(logging.Config{Format: "console"})
	tok, exp, err := utils.NewAdminToken(os.Getenv("JWT_SECRET"), *sub, *ttl)
	if err != nil {
		logging.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(tok)
	logging.Info().Str("sub", *sub).Time("expires", exp).Msg("admin token issued")
}
