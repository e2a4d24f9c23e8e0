// Command hashadminkey prints the bcrypt hash to put in
// TOKENAUTH_SECURITY_ADMIN_KEY_HASH. The key is read from the first argument,
// or from the first line of stdin when no argument is given.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	if err := run(flag.Args(), *cost, os.Stdin, os.Stdout); err != nil {
		slog.Error("Failed to hash admin key", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, cost int, stdin io.Reader, stdout io.Writer) error {
	key, err := readKey(args, stdin)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}

	_, err = fmt.Fprintln(stdout, string(hash))
	return err
}

func readKey(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return nonEmpty(args[0])
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key from stdin: %w", err)
	}
	return nonEmpty(strings.TrimRight(line, "\r\n"))
}

func nonEmpty(key string) (string, error) {
	if key == "" {
		return "", errors.New("admin key must not be empty")
	}
	return key, nil
}
