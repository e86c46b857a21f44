package config

import "testing"

func TestToScanRequestCarriesCoreFields(t *testing.T) {
	o := &Options{
		WordlistPath: "words.txt",
		Extensions:   []string{"php", "html"},
		Threads:      40,
		Recursive:    true,
		MaxDepth:     2,
		Headers:      map[string]string{"X-Api-Key": "secret"},
	}

	req := o.ToScanRequest("https://example.com")

	if req.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %q", req.BaseURL)
	}
	if req.Threads != 40 {
		t.Errorf("Threads = %d, want 40", req.Threads)
	}
	if !req.Recursive || req.RecursionDepth != 2 {
		t.Errorf("Recursive/RecursionDepth = %v/%d", req.Recursive, req.RecursionDepth)
	}
	if req.Headers == nil {
		t.Fatal("expected Headers to be set")
	}
	if v, ok := req.Headers.Get("x-api-key"); !ok || v != "secret" {
		t.Errorf("Headers.Get(x-api-key) = %q, %v", v, ok)
	}
}

func TestToScanRequestStatusSetsAreNilWhenUnset(t *testing.T) {
	o := &Options{}
	req := o.ToScanRequest("https://example.com")
	if req.IncludeStatus != nil {
		t.Error("expected nil IncludeStatus when no flag given")
	}
	if req.ExcludeStatus != nil {
		t.Error("expected nil ExcludeStatus when no flag given")
	}
}

func TestToScanRequestBuildsStatusSets(t *testing.T) {
	o := &Options{ExcludeStatus: []int{404, 400}}
	req := o.ToScanRequest("https://example.com")
	if len(req.ExcludeStatus) != 2 {
		t.Fatalf("expected 2 excluded codes, got %d", len(req.ExcludeStatus))
	}
	if _, ok := req.ExcludeStatus[404]; !ok {
		t.Error("expected 404 in ExcludeStatus")
	}
}

func TestLoadFileNoopWhenUnset(t *testing.T) {
	o := &Options{}
	if err := o.LoadFile(func(string) bool { return false }); err != nil {
		t.Fatalf("LoadFile with no ConfigFile: %v", err)
	}
}
