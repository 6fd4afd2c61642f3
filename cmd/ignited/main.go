// Command ignited is the TCP front door for an Ignite store: a line-oriented
// command server, grounded in original_source/srv/src/main.rs and its
// utils/server.rs + utils/threadpool.rs collaborators. The wire protocol
// (get/set/rm/ls/merge/help/exit) is unchanged from the source; the literal
// "\n"-between-records framing is not reproduced (spec.md §9 invites
// normalizing it) — every response here is newline-delimited, with a blank
// line terminating the multi-line ls and help responses.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/iamNilotpal/ignite/pkg/logger"
	"github.com/iamNilotpal/ignite/pkg/options"
)

func main() {
	var (
		addr           string
		dataDir        string
		maxLogFileSize uint64
		sync           bool
		workers        int
	)

	pflag.StringVar(&addr, "addr", "127.0.0.1:7878", "address to listen on")
	pflag.StringVar(&dataDir, "data-dir", "/var/lib/ignitedb", "directory to store segment files in")
	pflag.Uint64Var(&maxLogFileSize, "max-log-file-size", options.DefaultSegmentSize, "active segment rotation threshold, in bytes")
	pflag.BoolVar(&sync, "sync", false, "fsync the active segment after every write")
	pflag.IntVar(&workers, "workers", 4, "number of connection-handling workers")
	pflag.Parse()

	log := logger.New("ignited")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := ignite.NewInstance(
		ctx, "ignited",
		options.WithDataDir(dataDir),
		options.WithMaxLogFileSize(maxLogFileSize),
		options.WithSync(sync),
	)
	if err != nil {
		log.Fatalw("failed to open store", "error", err, "dataDir", dataDir)
	}
	defer store.Close(context.Background())

	srv := &server{addr: addr, store: store, log: log, workers: workers}
	if err := srv.run(ctx); err != nil {
		log.Fatalw("server exited with error", "error", err)
	}
}

// server binds addr and dispatches accepted connections to a fixed-size pool
// of workers, each holding its own cloned *ignite.Instance handle. Grounded
// in utils/threadpool.rs's worker/job-channel split, reimplemented with a
// buffered Go channel and errgroup instead of mpsc + explicit Drop.
type server struct {
	addr    string
	store   *ignite.Instance
	log     *zap.SugaredLogger
	workers int
}

func (s *server) run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.log.Infow("listening", "addr", s.addr, "workers", s.workers)

	conns := make(chan net.Conn, s.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < s.workers; i++ {
		workerID := i
		g.Go(func() error {
			handle := s.store.Clone()
			for conn := range conns {
				s.handleConnection(gctx, workerID, handle, conn)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		defer close(conns)
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			select {
			case conns <- conn:
			case <-gctx.Done():
				conn.Close()
				return nil
			}
		}
	})

	err = g.Wait()
	if ctx.Err() != nil {
		s.log.Infow("shutting down")
		return nil
	}
	return err
}

// handleConnection runs the line command loop for one client until it sends
// "exit" or disconnects. Server shutdown does not interrupt a connection that
// is waiting for its next command.
func (s *server) handleConnection(ctx context.Context, workerID int, store *ignite.Instance, conn net.Conn) {
	defer conn.Close()
	s.log.Infow("connection established", "worker", workerID, "remote", conn.RemoteAddr())

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				s.log.Errorw("read failed", "error", err)
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			fmt.Fprint(conn, "\n")
			continue
		}

		fields := strings.SplitN(line, " ", 3)
		switch fields[0] {
		case "exit":
			return
		case "help":
			writeHelp(conn)
		case "get", "set", "rm", "ls", "merge":
			if err := s.dispatch(ctx, store, conn, fields); err != nil {
				s.log.Errorw("command failed", "command", fields[0], "error", err)
				fmt.Fprintf(conn, "error: %v\n", err)
			}
		default:
			fmt.Fprintf(conn, "unknown command: %s\n", fields[0])
		}
	}
}

func writeHelp(w io.Writer) {
	fmt.Fprint(w,
		"help  -- show this message\n",
		"get   -- get value by key: get <key>\n",
		"set   -- set key to value: set <key> <value>\n",
		"rm    -- remove a key: rm <key>\n",
		"ls    -- list all keys\n",
		"merge -- run compaction\n",
		"exit  -- close the connection\n",
		"\n",
	)
}

func (s *server) dispatch(ctx context.Context, store *ignite.Instance, conn net.Conn, fields []string) error {
	switch fields[0] {
	case "set":
		if len(fields) != 3 {
			fmt.Fprint(conn, "usage: set <key> <value>\n")
			return nil
		}
		if err := store.Set(ctx, fields[1], []byte(fields[2])); err != nil {
			return err
		}
		fmt.Fprint(conn, "OK\n")

	case "get":
		if len(fields) != 2 {
			fmt.Fprint(conn, "usage: get <key>\n")
			return nil
		}
		v, ok, err := store.Get(ctx, fields[1])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprint(conn, "\n")
			return nil
		}
		fmt.Fprintf(conn, "%s\n", v)

	case "rm":
		if len(fields) != 2 {
			fmt.Fprint(conn, "usage: rm <key>\n")
			return nil
		}
		if err := store.Delete(ctx, fields[1]); err != nil {
			return err
		}
		fmt.Fprint(conn, "OK\n")

	case "ls":
		keys, err := store.Keys(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(conn, "%s\n", k)
		}
		fmt.Fprint(conn, "\n")

	case "merge":
		if err := store.Compact(ctx); err != nil {
			return err
		}
		fmt.Fprint(conn, "OK\n")
	}

	return nil
}
