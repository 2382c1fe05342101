package logx

import (
	"os"
	"testing"
)

func TestDebugDisabledByDefault(t *testing.T) {
	os.Unsetenv("DEBUG")
	os.Unsetenv("DEBUG_COMPONENTS")
	initDebugFromEnv()
	SetDebug(false, nil)

	if IsDebugEnabled("restclient") {
		t.Error("Expected debug disabled by default")
	}
}

func TestDebugEnabledForAllComponents(t *testing.T) {
	SetDebug(true, nil)
	defer SetDebug(false, nil)

	if !IsDebugEnabled("restclient") {
		t.Error("Expected debug enabled for all components")
	}
	if !IsDebugEnabled("taoloop") {
		t.Error("Expected debug enabled for all components")
	}
}

func TestDebugComponentFiltering(t *testing.T) {
	SetDebug(true, []string{"restclient", "taoloop"})
	defer SetDebug(false, nil)

	if !IsDebugEnabled("restclient") {
		t.Error("Expected restclient debug enabled")
	}
	if IsDebugEnabled("warmup") {
		t.Error("Expected warmup debug disabled by component filter")
	}
}

func TestEnvironmentConfiguration(t *testing.T) {
	os.Setenv("DEBUG", "1")
	os.Setenv("DEBUG_COMPONENTS", "restclient")
	defer func() {
		os.Unsetenv("DEBUG")
		os.Unsetenv("DEBUG_COMPONENTS")
		initDebugFromEnv()
		SetDebug(false, nil)
	}()

	initDebugFromEnv()

	if !IsDebugEnabled("restclient") {
		t.Error("Expected restclient enabled via DEBUG_COMPONENTS")
	}
	if IsDebugEnabled("tools") {
		t.Error("Expected tools disabled when not in DEBUG_COMPONENTS")
	}
}
