package netutil

import (
	"errors"
	"testing"

	"github.com/maxvaer/dirscan/internal/scanmodel"
)

func TestExpandTargetsCIDRSkipsNetworkAndBroadcast(t *testing.T) {
	urls, err := ExpandTargets("192.168.1.0/30", "", "http")
	if err != nil {
		t.Fatalf("ExpandTargets: %v", err)
	}
	// /30 has 4 addresses; network (.0) and broadcast (.3) are skipped,
	// leaving .1 and .2.
	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %d: %v", len(urls), urls)
	}
	if urls[0] != "http://192.168.1.1" || urls[1] != "http://192.168.1.2" {
		t.Errorf("unexpected URLs: %v", urls)
	}
}

func TestExpandTargetsSingleIP(t *testing.T) {
	urls, err := ExpandTargets("10.0.0.5", "", "https")
	if err != nil {
		t.Fatalf("ExpandTargets: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://10.0.0.5" {
		t.Errorf("unexpected URLs: %v", urls)
	}
}

func TestExpandTargetsCustomPorts(t *testing.T) {
	urls, err := ExpandTargets("10.0.0.5", "8080,8443", "http")
	if err != nil {
		t.Fatalf("ExpandTargets: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %d: %v", len(urls), urls)
	}
	if urls[0] != "http://10.0.0.5:8080" || urls[1] != "http://10.0.0.5:8443" {
		t.Errorf("unexpected URLs: %v", urls)
	}
}

func TestExpandTargetsInvalidCIDR(t *testing.T) {
	_, err := ExpandTargets("not-an-ip", "", "http")
	if err == nil {
		t.Fatal("expected error for invalid CIDR/IP")
	}
	if !errors.Is(err, scanmodel.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestExpandTargetsRejectsOutOfRangePort(t *testing.T) {
	_, err := ExpandTargets("10.0.0.5", "70000", "http")
	if !errors.Is(err, scanmodel.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput for an out-of-range port, got %v", err)
	}
}

func TestExpandTargetsRejectsLargeCIDR(t *testing.T) {
	_, err := ExpandTargets("10.0.0.0/16", "", "http")
	if !errors.Is(err, scanmodel.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput for a CIDR exceeding MaxCIDRHosts, got %v", err)
	}
}
