// Command pagegatectl manages a pagegate credential store offline.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/hnrobert/pagegate/internal/admin"
	"github.com/hnrobert/pagegate/internal/config"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/pages"
)

const usage = `usage: pagegatectl <command> [flags]

commands:
  init     create a new store with one admin account
  useradd  add an account to an existing store
  list     print the accounts in a store
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "pagegatectl:", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "init":
		return cmdInit(args[1:], in, out)
	case "useradd":
		return cmdUseradd(args[1:], in, out)
	case "list":
		return cmdList(args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags registers -config and -store on fs. The store path defaults to
// the configured one.
type commonFlags struct {
	config string
	store  string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", os.Getenv("PAGEGATE_CONFIG"), "path to YAML config file")
	fs.StringVar(&c.store, "store", "", "credential store path (default from config)")
}

func (c *commonFlags) load() (config.Config, string, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return config.Config{}, "", err
	}
	p := c.store
	if p == "" {
		p = cfg.StorePath
	}
	return cfg, p, nil
}

func cmdInit(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(out)
	var common commonFlags
	common.register(fs)
	user := fs.String("admin", "", "admin username")
	name := fs.String("name", "", "admin display name (defaults to the username)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("-admin is required")
	}
	cfg, path, err := common.load()
	if err != nil {
		return err
	}
	if *name == "" {
		*name = *user
	}

	pw, err := readPassword(in, out, "Password for "+*user+": ")
	if err != nil {
		return err
	}
	if pw == "" {
		return errors.New("password must not be empty")
	}

	doc := credstore.Document{
		Passwords:   map[string]string{*user: pw},
		Profile:     map[string]credstore.Profile{*user: {Name: *name, Password: pw}},
		Roles:       map[string]string{*user: credstore.RoleAdmin},
		Permissions: map[string][]string{*user: pages.NewUniverse(cfg.Pages).IDs()},
		ActiveUsers: map[string]bool{*user: true},
	}
	if _, err := credstore.Create(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s with admin %s\n", path, *user)
	return nil
}

func cmdUseradd(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(out)
	var common commonFlags
	common.register(fs)
	user := fs.String("user", "", "username")
	name := fs.String("name", "", "display name")
	role := fs.String("role", credstore.RoleUser, "role: user|admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, path, err := common.load()
	if err != nil {
		return err
	}
	store, err := credstore.Load(path)
	if err != nil {
		return err
	}

	pw, err := readPassword(in, out, "Password for "+*user+": ")
	if err != nil {
		return err
	}
	m := admin.NewManager(store, pages.NewUniverse(cfg.Pages))
	if err := m.CreateUser(*user, *name, pw, *role); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s (%s)\n", *user, *role)
	return nil
}

func cmdList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, path, err := common.load()
	if err != nil {
		return err
	}
	store, err := credstore.Load(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tNAME\tROLE\tACTIVE\tPERMISSIONS")
	for _, acc := range admin.NewManager(store, pages.NewUniverse(cfg.Pages)).Accounts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", acc.Username, acc.Name, acc.Role, acc.Active, strings.Join(acc.Permissions, ","))
	}
	return tw.Flush()
}

// readPassword reads without echo from a terminal, otherwise one line from in.
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
