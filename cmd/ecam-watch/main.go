// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ecam-watch monitors an acquisition spool directory, decodes recordings
// as they complete, and optionally runs (and monitors) the acquisition
// command itself.
//
// A recording is considered complete when its size did not change over
// one probing interval. Decode failures raise an e-mail alert when the
// MAIL_* environment variables are set.
package main // import "github.com/go-evc/ecam/cmd/ecam-watch"

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-evc/ecam/evt3"
	"github.com/go-evc/ecam/internal/xcnv"
	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
	mail "gopkg.in/gomail.v2"
)

var stop = make(chan os.Signal, 1)

func main() {
	log.SetPrefix("ecam-watch: ")
	log.SetFlags(0)

	var (
		dir    = flag.String("dir", ".", "spool directory to monitor")
		freq   = flag.Duration("freq", 30*time.Second, "probing interval")
		run    = flag.String("run", "", "acquisition command to spawn (with its arguments)")
		doMon  = flag.Bool("pmon", false, "enable pmon monitoring of the acquisition command")
		doFreq = flag.Duration("pmon-freq", 1*time.Second, "pmon frequency")
	)

	flag.Parse()

	err := watch(*dir, *freq, *run, *doMon, *doFreq)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func watch(dir string, freq time.Duration, run string, doMon bool, monFreq time.Duration) error {
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	var (
		grp  errgroup.Group
		quit = make(chan int)
	)

	go func() {
		<-stop
		close(quit)
	}()

	if run != "" {
		args := strings.Fields(run)
		cmd := exec.Command(args[0], args[1:]...)
		grp.Go(func() error {
			return start(cmd, quit, doMon, monFreq)
		})
	}

	grp.Go(func() error {
		return loop(dir, freq, quit)
	})

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not watch %q: %w", dir, err)
	}
	return nil
}

// start runs the acquisition command, optionally monitored with pmon,
// until it exits or the watcher is interrupted.
func start(cmd *exec.Cmd, quit chan int, doMon bool, freq time.Duration) error {
	name := filepath.Base(cmd.Path)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Printf("starting %q...", name)
	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start %q: %w", name, err)
	}

	if doMon {
		p, err := pmon.Monitor(cmd.Process.Pid)
		if err != nil {
			return fmt.Errorf("could not start monitoring %q (pid=%d): %w", name, cmd.Process.Pid, err)
		}
		f, err := os.Create(name + "-pmon.log")
		if err != nil {
			return fmt.Errorf("could not create pmon log file for command %q: %w", name, err)
		}
		defer f.Close()
		p.W = f
		p.Freq = freq

		go func() {
			log.Printf("run pmon %q...", name)
			err := p.Run()
			if err != nil {
				log.Printf("could not monitor %q: %+v", name, err)
			}
		}()

		defer func() {
			err := p.Kill()
			if err != nil {
				log.Printf("could not stop monitoring %q: %+v", name, err)
			}
		}()
	}

	errch := make(chan error)
	go func() {
		errch <- cmd.Wait()
	}()

	select {
	case <-quit:
		err = cmd.Process.Kill()
		if err != nil {
			return fmt.Errorf("could not kill %q: %+v", name, err)
		}
	case err = <-errch:
		if err != nil {
			return fmt.Errorf("could not run %q: %w", name, err)
		}
	}

	return nil
}

func loop(dir string, freq time.Duration, quit chan int) error {
	var (
		tick  = time.NewTicker(freq)
		sizes = make(map[string]int64)
		done  = make(map[string]bool)
	)
	defer tick.Stop()

	for {
		select {
		case <-quit:
			return nil
		case <-tick.C:
			cur, err := list(dir)
			if err != nil {
				log.Printf("could not list files: %+v", err)
				continue
			}
			for fname, size := range cur {
				if done[fname] {
					continue
				}
				prev, ok := sizes[fname]
				if !ok {
					// file just appeared.
					continue
				}
				if prev == size {
					// file didn't grow: acquisition finished.
					done[fname] = true
					process(fname)
				}
			}
			sizes = cur
		}
	}
}

func list(dir string) (map[string]int64, error) {
	table := make(map[string]int64)
	glob := filepath.Join(dir, "*.raw")
	files, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("could not glob %q: %w", glob, err)
	}
	for _, fname := range files {
		fi, err := os.Stat(fname)
		if err != nil {
			return nil, fmt.Errorf("could not stat %q: %w", fname, err)
		}
		table[fname] = fi.Size()
	}
	return table, nil
}

func process(fname string) {
	log.Printf("decoding %q...", fname)
	res, err := evt3.DecodeFile(fname)
	if err != nil {
		log.Printf("could not decode %q: %+v", fname, err)
		alertMail(fname, err)
		return
	}

	out := strings.TrimSuffix(fname, filepath.Ext(fname)) + ".csv"
	err = xcnv.WriteCSV(out, res, xcnv.XYPT)
	if err != nil {
		log.Printf("could not write %q: %+v", out, err)
		alertMail(fname, err)
		return
	}

	log.Printf("decoded %q: %d cd events, %d triggers (loops=%d)",
		fname, res.CD.Len(), res.Trig.Len(), res.Stats.TimeHighLoops,
	)
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

func alertMail(fname string, alert error) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[ecam-watch] decode alert: %q", fname))
	msg.SetBody("text/plain", fmt.Sprintf("file: %q\nerror: %+v", fname, alert))

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{ServerName: alertMailSrv}

	err := dial.DialAndSend(msg)
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
