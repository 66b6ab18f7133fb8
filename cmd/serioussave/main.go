// Command serioussave extracts and re-creates signature-stream save files,
// mirroring pedumper's cobra-driven CLI layout but for the two save-file
// operations the package supports (spec section 6).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xlog"
	"github.com/widberg/serioussave/keyring"
	"github.com/widberg/serioussave/savefile"
)

func parseEndian(s string) (endian.Engine, error) {
	switch s {
	case "", "little", "l":
		return endian.Little(), nil
	case "big", "b":
		return endian.Big(), nil
	default:
		return nil, fmt.Errorf("unknown endian %q, want big or little", s)
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func runExtract(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	memoryStreamName, _ := cmd.Flags().GetString("memory-stream-name")
	userID, _ := cmd.Flags().GetString("userid")
	endianFlag, _ := cmd.Flags().GetString("endian")
	noGuess, _ := cmd.Flags().GetBool("no-guess-memory-stream-name")
	wantJSON, _ := cmd.Flags().GetBool("json")
	noGz, _ := cmd.Flags().GetBool("no-gz")

	e, err := parseEndian(endianFlag)
	if err != nil {
		return err
	}

	if memoryStreamName == "" && !noGuess {
		if guessed, ok := savefile.GuessMemoryStreamName(filepath.Base(in)); ok {
			memoryStreamName = guessed
		}
	}

	src, err := savefile.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	result, err := savefile.Extract(src.Bytes(), savefile.ExtractOptions{
		Endian:           e,
		KeyRing:          keyring.Default(),
		MemoryStreamName: optionalString(memoryStreamName),
		UserID:           optionalString(userID),
		Gzip:             !noGz,
		JSON:             wantJSON,
		Logger:           xlog.Default(),
	})
	if err != nil {
		return err
	}

	return os.WriteFile(out, result, 0o644)
}

func runCreate(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]

	memoryStreamName, _ := cmd.Flags().GetString("memory-stream-name")
	userID, _ := cmd.Flags().GetString("userid")
	endianFlag, _ := cmd.Flags().GetString("endian")
	guess, _ := cmd.Flags().GetBool("guess-memory-stream-name")
	noSign, _ := cmd.Flags().GetBool("no-sign")
	version, _ := cmd.Flags().GetUint32("signature-stream-version")
	wantJSON, _ := cmd.Flags().GetBool("json")
	keyName, _ := cmd.Flags().GetString("key-name")
	noGz, _ := cmd.Flags().GetBool("no-gz")

	e, err := parseEndian(endianFlag)
	if err != nil {
		return err
	}

	if memoryStreamName == "" && guess {
		if guessed, ok := savefile.GuessMemoryStreamName(filepath.Base(out)); ok {
			memoryStreamName = guessed
		}
	}

	input, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	return savefile.Create(f, input, savefile.CreateOptions{
		Endian:           e,
		KeyRing:          keyring.Default(),
		MemoryStreamName: optionalString(memoryStreamName),
		UserID:           optionalString(userID),
		SignKeyName:      keyName,
		NoSign:           noSign,
		Version:          version,
		Gzip:             !noGz,
		JSON:             wantJSON,
		Logger:           xlog.Default(),
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "serioussave",
		Short: "Extracts and re-creates signature-stream save files",
	}

	extractCmd := &cobra.Command{
		Use:     "extract <in> <out>",
		Aliases: []string{"x"},
		Short:   "Extract a save file to its designatured CTSEMETA form",
		Args:    cobra.ExactArgs(2),
		RunE:    runExtract,
	}
	extractCmd.Flags().StringP("memory-stream-name", "m", "", "memory stream name to verify against")
	extractCmd.Flags().StringP("userid", "u", "", "user id to verify against")
	extractCmd.Flags().StringP("endian", "e", "little", "byte order: big or little")
	extractCmd.Flags().BoolP("no-guess-memory-stream-name", "n", false, "disable filename-based memory stream name guessing")
	extractCmd.Flags().BoolP("json", "j", false, "decode to the human-editable JSON tree instead of raw CTSEMETA bytes")
	extractCmd.Flags().Bool("no-gz", false, "the input is a raw signature stream, not gzip-wrapped")

	createCmd := &cobra.Command{
		Use:     "create <in> <out>",
		Aliases: []string{"c"},
		Short:   "Create a signed save file from its CTSEMETA or JSON form",
		Args:    cobra.ExactArgs(2),
		RunE:    runCreate,
	}
	createCmd.Flags().StringP("memory-stream-name", "m", "", "memory stream name to sign with")
	createCmd.Flags().StringP("userid", "u", "", "user id to sign with")
	createCmd.Flags().StringP("endian", "e", "little", "byte order: big or little")
	createCmd.Flags().BoolP("guess-memory-stream-name", "g", false, "enable filename-based memory stream name guessing")
	createCmd.Flags().Bool("no-sign", false, "write an unsigned signature stream")
	createCmd.Flags().Uint32P("signature-stream-version", "s", 5, "signature stream format version")
	createCmd.Flags().BoolP("json", "j", false, "input is the human-editable JSON tree instead of raw CTSEMETA bytes")
	createCmd.Flags().StringP("key-name", "k", keyring.SignKeyGameLocal, "key ring entry to sign with")
	createCmd.Flags().Bool("no-gz", false, "write a raw signature stream instead of gzip-wrapping it")

	rootCmd.AddCommand(extractCmd, createCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
