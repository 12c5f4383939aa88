package daemon_test

import (
	"context"
	"testing"

	"echonexus/internal/daemon"
	"echonexus/internal/logging"
	"echonexus/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)

	d, err := daemon.New(cfg, log, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	st := d.Status()
	if !st.Running {
		t.Fatal("daemon should report running")
	}
	if st.APIAddress == "" {
		t.Fatal("daemon should report the bound api address")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("daemon should report stopped")
	}
}

func TestDaemonSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)

	first, err := daemon.New(cfg, log, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, log, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestDaemonStartAfterStopReusesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)

	d, err := daemon.New(cfg, log, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	d.Stop()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	d.Stop()
}
