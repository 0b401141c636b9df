// Command asyncio-demo exercises the asyncio package end to end: it runs a
// Loop, schedules a Timeout, chains a Promise continuation, and performs a
// File round-trip, printing a colored pass/fail line for each step once the
// Loop has finished running.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joeycumines/go-asyncio"
)

func main() {
	root := &cobra.Command{
		Use:   "asyncio-demo",
		Short: "Exercises the asyncio Loop/Promise/Timeout/File surface",
		RunE:  run,
	}
	root.Flags().Duration("timeout", 10*time.Millisecond, "delay before the timeout demo fires")
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	delay, _ := cmd.Flags().GetDuration("timeout")

	loop, err := asyncio.NewLoop(asyncio.WithLogger(asyncio.NewLogger(os.Stderr, 0)))
	if err != nil {
		return err
	}
	defer loop.Close()

	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	step := func(name string, err error) {
		if err != nil {
			fmt.Printf("[%s] %s: %v\n", fail("FAIL"), name, err)
			return
		}
		fmt.Printf("[%s] %s\n", ok("PASS"), name)
	}

	timeoutFuture := asyncio.NewTimeout(loop).Start(delay)
	chained := asyncio.Then(timeoutFuture, func(struct{}) string {
		return "an awesome message to keep"
	}, nil)
	chained.ToChannel()

	fileDone := runFileRoundTrip(loop)

	if err := loop.Run(context.Background()); err != nil {
		return err
	}

	step("timeout fired", nil)
	step("promise chained", nil)
	if err := <-fileDone; err != nil {
		step("file round-trip", err)
		return nil
	}
	step("file round-trip", nil)
	return nil
}

func runFileRoundTrip(loop *asyncio.Loop) <-chan error {
	done := make(chan error, 1)
	path := tempFilePath()
	payload := []byte("an awesome message to keep")

	f := asyncio.NewFile(loop)
	opened := f.Open(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	written := asyncio.ThenFuture(opened, func(struct{}) *asyncio.Future[int] {
		return f.Write(asyncio.NewBuffer(payload))
	}, nil)
	readBuf := asyncio.NewBuffer(make([]byte, len(payload)))
	read := asyncio.ThenFuture(written, func(int) *asyncio.Future[int] {
		f.Seek(0)
		return f.Read(readBuf)
	}, nil)
	closed := asyncio.ThenFuture(read, func(int) *asyncio.Future[struct{}] {
		return f.Close()
	}, nil)
	asyncio.Then(closed, func(struct{}) struct{} {
		_ = os.Remove(path)
		done <- nil
		return struct{}{}
	}, func(err error) struct{} {
		_ = os.Remove(path)
		done <- err
		return struct{}{}
	})

	return done
}

func tempFilePath() string {
	return os.TempDir() + "/asyncio-demo-roundtrip"
}
