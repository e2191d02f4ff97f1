//	@title			KeyGate API
//	@version		1.0
//	@description	Multi-tenant credential vault: activation keys, device binding and session tokens
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/go-authgate/keygate

//	@license.name	MIT
//	@license.url	https://github.com/go-authgate/keygate/blob/main/LICENSE

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the session token.

//	@securityDefinitions.apikey	SessionAuth
//	@in							cookie
//	@name						keygate_session
//	@description				Login session cookie

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-authgate/keygate/internal/bootstrap"
	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/version"

	_ "github.com/go-authgate/keygate/api" // swagger docs
)

func main() {
	// Define flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		version.PrintVersion(os.Stdout)
		os.Exit(0)
	}

	// Check if command is provided
	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Handle subcommands
	switch args[0] {
	case "server":
		runServer()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("Credential vault authorization server")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the KeyGate server")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

func runServer() {
	if err := bootstrap.Run(config.Load()); err != nil {
		fmt.Fprintf(os.Stderr, "keygate: %v\n", err)
		os.Exit(1)
	}
}
