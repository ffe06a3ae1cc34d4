// Package env provides environment configuration helpers for the sample commands.
package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Load reads a .env file from the working directory if one exists.
// Missing files are not an error; explicit paths that fail to parse are.
func Load(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(paths...)
}

// Get returns the value of key, or fallback if the variable is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Require returns the value of key, exiting with a usage hint if unset.
func Require(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}
