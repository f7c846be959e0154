// Command pancli is a small interactive operator tool: it manages
// internal/nntpuser accounts, prompts for an OpenPGP key passphrase and
// loads the armored keyring through internal/mimeasm, and inspects a scorefile via
// internal/scorefile -- all the places a host application needs to
// prompt an operator for a secret without echoing it to the terminal.
//
// golang.org/x/term provides no-echo password prompts over flag-driven
// subcommands backed by internal/nntpuser's bcrypt-hashed NNTP accounts.
package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/term"

	"github.com/anthropic-test/panengine/internal/config"
	"github.com/anthropic-test/panengine/internal/mimeasm"
	"github.com/anthropic-test/panengine/internal/nntpuser"
	"github.com/anthropic-test/panengine/internal/scorefile"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to an engine config JSON file (overrides -db with its users_db)")
		dbPath        = flag.String("db", "pancli.db", "path to the nntp_users sqlite database")
		adduser       = flag.Bool("adduser", false, "create a new NNTP account")
		passwd        = flag.Bool("passwd", false, "change an NNTP account's password")
		username      = flag.String("username", "", "username for -adduser/-passwd")
		maxConns      = flag.Int("maxconns", 1, "max simultaneous connections for -adduser")
		posting       = flag.Bool("posting", false, "grant posting permission for -adduser")
		unlockKey     = flag.String("unlock-key", "", "path to an armored OpenPGP private key to unlock")
		editScorefile = flag.String("scorefile", "", "path to a scorefile to parse and summarize")
	)
	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		*dbPath = cfg.UsersDB
		fmt.Printf("loaded config for host %q (nntp port %d, users db %s)\n", cfg.Hostname, cfg.NNTP.Port, cfg.UsersDB)
	}

	switch {
	case *adduser:
		requireUsername(*username)
		mustCreateUser(*dbPath, *username, *maxConns, *posting)
	case *passwd:
		requireUsername(*username)
		mustChangePassword(*dbPath, *username)
	case *unlockKey != "":
		mustUnlockKey(*unlockKey)
	case *editScorefile != "":
		mustSummarizeScorefile(*editScorefile)
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
}

func requireUsername(username string) {
	if username == "" {
		log.Fatal("-username is required")
	}
}

func openUserStore(path string) *nntpuser.Store {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	store, err := nntpuser.Open(db)
	if err != nil {
		log.Fatalf("open user store: %v", err)
	}
	return store
}

// readPasswordTwice reads a no-echo password, then prompts again for
// confirmation, failing if the two don't match or the password is
// shorter than 6 characters.
func readPasswordTwice() (string, error) {
	fmt.Print("Enter password: ")
	pw1, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Print("Confirm password: ")
	pw2, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if !bytes.Equal(pw1, pw2) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(pw1) < 6 {
		return "", fmt.Errorf("password must be at least 6 characters long")
	}
	return string(pw1), nil
}

func mustCreateUser(dbPath, username string, maxConns int, posting bool) {
	store := openUserStore(dbPath)
	password, err := readPasswordTwice()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := store.CreateUser(username, password, maxConns, posting); err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("created account %q (maxconns=%d posting=%v)\n", username, maxConns, posting)
}

func mustChangePassword(dbPath, username string) {
	store := openUserStore(dbPath)
	password, err := readPasswordTwice()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := store.SetPassword(username, password); err != nil {
		log.Fatalf("set password: %v", err)
	}
	fmt.Printf("password updated for %q\n", username)
}

// mustUnlockKey prompts for the passphrase protecting keyPath's armored
// private key, then parses the file as a keyring. The passphrase is not
// applied to the key material, so a wrong passphrase is not detected;
// only a file that fails to parse as a keyring is reported.
func mustUnlockKey(keyPath string) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		log.Fatalf("read %s: %v", keyPath, err)
	}

	fmt.Print("Enter key passphrase: ")
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatalf("read passphrase: %v", err)
	}

	keyring, err := mimeasm.NewPGPKeyring(bytes.NewReader(data))
	if err != nil {
		log.Fatalf("read keyring: %v", err)
	}
	_ = passphrase // read but not applied to the key material
	fmt.Printf("keyring loaded from %s\n", keyPath)
	_ = keyring
}

func mustSummarizeScorefile(path string) {
	p := scorefile.NewParser()
	if err := p.ParseFile(path); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}
	p.Finish()
	for _, section := range p.Sections {
		groups := make([]string, 0, len(section.Groups))
		for _, g := range section.Groups {
			groups = append(groups, g.Text)
		}
		fmt.Printf("[%s] (%d rules)\n", strings.Join(groups, ","), len(section.Rules))
		for _, r := range section.Rules {
			status := "active"
			if r.Expired {
				status = "expired"
			}
			fmt.Printf("  %s: value=%d %s\n", r.Name, r.Value, status)
		}
	}
}
