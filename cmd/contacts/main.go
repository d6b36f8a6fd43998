package main

import (
	"os"

	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-book/internal/cli"
	"gitlab.com/dirk.krummacker/contact-book/internal/config"
	"gitlab.com/dirk.krummacker/contact-book/internal/logger"
)

// Usage example on the command line:
// > CONTACTS_LOG_LEVEL=info go run main.go add "John Doe" --phone "(123) 456-7890"
// > CONTACTS_STORAGE_BACKEND=sqlite go run main.go list
// > go run main.go
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log, logErr := logger.New("error", false)
		if logErr != nil {
			panic(err)
		}
		log.Fatal("Could not read configuration", zap.Error(err))
	}
	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
