package main

import (
	"reflect"
	"testing"
)

func TestMafftExtraArgsFlagOverridesConfig(t *testing.T) {
	got := mafftExtraArgs("--thread 4", "--retree 2")
	want := []string{"--thread", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("flag must win over config: got %v, want %v", got, want)
	}
}

func TestMafftExtraArgsFallsBackToConfig(t *testing.T) {
	got := mafftExtraArgs("", "--retree 2")
	want := []string{"--retree", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("config value must be used when flag is empty: got %v, want %v", got, want)
	}
}

func TestMafftExtraArgsBothEmpty(t *testing.T) {
	if got := mafftExtraArgs("", ""); len(got) != 0 {
		t.Fatalf("expected no extra args, got %v", got)
	}
}
