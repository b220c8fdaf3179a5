package axdom

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hazyhaar/axdom/connectivity"
)

func TestConnectivity_Query(t *testing.T) {
	svc := testService(t, Config{})
	router := connectivity.New()
	svc.RegisterConnectivity(router)

	payload, _ := json.Marshal(map[string]any{
		"html":     loginPage,
		"selector": `role={"role":"textbox","name":"Username"}`,
	})
	raw, err := router.Call(context.Background(), "axdom_query", payload)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	var res QueryResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %+v", res.Matches)
	}
	if got := res.Matches[0]; got.Tag != "input" || got.Role != "textbox" {
		t.Fatalf("match = %+v", got)
	}
}

func TestConnectivity_DecodeError(t *testing.T) {
	svc := testService(t, Config{})
	router := connectivity.New()
	svc.RegisterConnectivity(router)

	if _, err := router.Call(context.Background(), "axdom_query", []byte("{broken")); err == nil {
		t.Fatal("expected decode error")
	}
}
