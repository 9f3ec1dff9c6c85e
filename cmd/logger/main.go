package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"backend-gpslogger/internal/client"
	"backend-gpslogger/internal/config"
	"backend-gpslogger/internal/location"
	"backend-gpslogger/internal/record"
	"backend-gpslogger/internal/workflow"
)

func main() {
	cfg := config.Load()

	api := client.New(cfg.ServerURL)
	provider := location.NewFromConfig(cfg, &location.PromptRequester{In: os.Stdin, Out: os.Stdout})
	ctrl := workflow.NewController(api, provider, api)

	if err := run(context.Background(), ctrl, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("gpslogger: %v", err)
	}
}

func run(ctx context.Context, ctrl *workflow.Controller, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	defer ctrl.Menu().Leave()

	for {
		var (
			done bool
			err  error
		)
		switch ctrl.Screen() {
		case workflow.ScreenLogin:
			done, err = loginScreen(ctx, ctrl, reader, out)
		case workflow.ScreenMenu:
			done, err = menuScreen(ctx, ctrl, reader, out)
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// loginScreen collects credentials and runs the login workflow. An empty
// email quits.
func loginScreen(ctx context.Context, ctrl *workflow.Controller, reader *bufio.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "Email: ")
	email, err := readLine(reader)
	if err != nil {
		return true, quietEOF(err)
	}
	if strings.TrimSpace(email) == "" {
		return true, nil
	}

	fmt.Fprint(out, "Password: ")
	password, err := readLine(reader)
	if err != nil {
		return true, quietEOF(err)
	}

	outcome := ctrl.AttemptLogin(ctx, email, password)
	fmt.Fprintln(out, outcome.Message)
	return false, nil
}

func menuScreen(ctx context.Context, ctrl *workflow.Controller, reader *bufio.Reader, out io.Writer) (bool, error) {
	fmt.Fprintln(out, "\n[g] get coordinates  [o] sign out  [q] quit")
	fmt.Fprint(out, "> ")

	cmd, err := readLine(reader)
	if err != nil {
		return true, quietEOF(err)
	}

	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "g":
		capture(ctx, ctrl, out)
		renderTable(out, ctrl.Menu().Records())
	case "o":
		if err := ctrl.SignOut(ctx); err != nil {
			fmt.Fprintf(out, "Sign-out reported an error: %v\n", err)
		}
		fmt.Fprintln(out, "Signed out.")
	case "q":
		return true, nil
	case "":
		renderTable(out, ctrl.Menu().Records())
	default:
		fmt.Fprintln(out, "Unknown command.")
	}
	return false, nil
}

func capture(ctx context.Context, ctrl *workflow.Controller, out io.Writer) {
	_, _, err := ctrl.Menu().Capture(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(out, "Coordinates saved.")
	case errors.Is(err, workflow.ErrPermissionDenied):
		fmt.Fprintln(out, "Location permission denied.")
	case errors.Is(err, workflow.ErrLocationUnavailable):
		fmt.Fprintln(out, "Could not obtain location.")
	default:
		fmt.Fprintf(out, "Failed to save coordinates: %v\n", err)
	}
}

func renderTable(out io.Writer, records []record.Record) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Latitude\tLongitude\tDate & Time")
	for _, rec := range records {
		fmt.Fprintf(w, "%v\t%v\t%s\n", rec.Latitude, rec.Longitude, rec.CapturedTime().Format("02/01/2006 15:04:05"))
	}
	_ = w.Flush()
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func quietEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
