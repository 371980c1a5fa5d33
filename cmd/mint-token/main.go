// Command mint-token prints an ADMIN bearer token for the showtime API,
// signed with JWT_SECRET from the environment or .env.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-showtime-scheduler/internal/utils"
)

func main() {
	sub := flag.String("sub", "ops", "token subject")
	role := flag.String("role", utils.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *sub, *role, *ttl)
	if err != nil {
		logrus.WithError(err).Fatal("mint token")
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
