// Copyright 2026 The go-evc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ecam-srv starts a TDAQ server that replays a decoded EVT 3.0
// recording to downstream processes, one packed batch of CD events per
// output frame.
package main // import "github.com/go-evc/ecam/cmd/ecam-srv"

import (
	"context"
	"encoding/binary"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-evc/ecam/evt3"
)

func main() {
	cmd := flags.New()

	dev := srv{
		fname: cmd.Args[0],
		batch: 1024,
	}

	s := tdaq.New(cmd, os.Stdout)
	s.CmdHandle("/config", dev.OnConfig)
	s.CmdHandle("/init", dev.OnInit)
	s.CmdHandle("/reset", dev.OnReset)
	s.CmdHandle("/start", dev.OnStart)
	s.CmdHandle("/stop", dev.OnStop)
	s.CmdHandle("/quit", dev.OnQuit)

	s.OutputHandle("/evt3/cd", dev.cd)

	s.RunHandle(dev.run)

	err := s.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

// evtLen is the packed size of one CD event: u16 x, u16 y, u8 p, u8 pad,
// u64 t, little-endian.
const evtLen = 14

type srv struct {
	fname string
	batch int

	res  *evt3.Result
	pos  int
	data chan []byte
}

func (dev *srv) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	return nil
}

func (dev *srv) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	res, err := evt3.DecodeFile(dev.fname)
	if err != nil {
		ctx.Msg.Errorf("could not decode %q: %+v", dev.fname, err)
		return err
	}
	ctx.Msg.Infof("decoded %q: %d cd events (sensor %dx%d)",
		dev.fname, res.CD.Len(), res.Width, res.Height,
	)
	dev.res = res
	dev.pos = 0
	dev.data = make(chan []byte, 1024)
	return nil
}

func (dev *srv) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev.pos = 0
	dev.data = make(chan []byte, 1024)
	return nil
}

func (dev *srv) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *srv) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> replayed %d events", dev.pos)
	return nil
}

func (dev *srv) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *srv) cd(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

func (dev *srv) run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			raw := dev.pack()
			if raw == nil {
				// end of recording.
				time.Sleep(100 * time.Millisecond)
				continue
			}
			select {
			case <-ctx.Ctx.Done():
				return nil
			case dev.data <- raw:
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// pack serializes the next batch of CD events.
func (dev *srv) pack() []byte {
	cd := &dev.res.CD
	if dev.pos >= cd.Len() {
		return nil
	}

	n := dev.batch
	if rest := cd.Len() - dev.pos; rest < n {
		n = rest
	}

	raw := make([]byte, n*evtLen)
	for i := 0; i < n; i++ {
		var (
			j = dev.pos + i
			p = raw[i*evtLen:]
		)
		binary.LittleEndian.PutUint16(p[0:2], cd.X[j])
		binary.LittleEndian.PutUint16(p[2:4], cd.Y[j])
		p[4] = cd.P[j]
		p[5] = 0
		binary.LittleEndian.PutUint64(p[6:14], cd.T[j])
	}
	dev.pos += n
	return raw
}
