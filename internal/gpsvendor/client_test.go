package gpsvendor

import (
    "testing"
)

func TestNew(t *testing.T) {
    client, err := New(basicAuthConfig("https://gateway.example.com"))
    if err != nil {
        t.Fatal(err)
    }
    if _, ok := client.(*BasicAuthClient); !ok || client.Dialect() != DialectBasicAuth {
        t.Fatalf("expected basic auth client, got %T", client)
    }

    client, err = New(apiKeyConfig("https://tracking.example.com/sit/gps/location"))
    if err != nil {
        t.Fatal(err)
    }
    if _, ok := client.(*APIKeyClient); !ok || client.Dialect() != DialectAPIKey {
        t.Fatalf("expected api key client, got %T", client)
    }
}

func TestNew_InvalidConfig(t *testing.T) {
    noPassword := basicAuthConfig("https://gateway.example.com")
    noPassword.Password = ""
    if _, err := New(noPassword); err == nil {
        t.Fatal("basic auth config without password should be rejected")
    }

    noKey := apiKeyConfig("https://tracking.example.com")
    noKey.APIKey = ""
    if _, err := New(noKey); err == nil {
        t.Fatal("api key config without key should be rejected")
    }

    badURL := apiKeyConfig("not a url")
    if _, err := New(badURL); err == nil {
        t.Fatal("invalid base url should be rejected")
    }

    unknown := basicAuthConfig("https://gateway.example.com")
    unknown.Dialect = "soap"
    if _, err := New(unknown); err == nil {
        t.Fatal("unknown dialect should be rejected")
    }

    // credentials of the other dialect are not required
    keyOnly := apiKeyConfig("https://tracking.example.com")
    if keyOnly.Username != "" {
        t.Fatal("fixture should not carry basic auth credentials")
    }
    if _, err := NewAPIKeyClient(keyOnly); err != nil {
        t.Fatal(err)
    }
}

func TestConfig_DefaultTimeout(t *testing.T) {
    cfg := basicAuthConfig("https://gateway.example.com")
    cfg.Timeout = 0
    if got := cfg.httpClient().Timeout; got != DefaultTimeout {
        t.Fatalf("expected default timeout %s, got %s", DefaultTimeout, got)
    }
}

func TestResultCode_UnmarshalJSON(t *testing.T) {
    cases := map[string]string{
        `1`:     "1",
        `"1"`:   "1",
        `0`:     "0",
        `null`:  "",
        `2.5`:   "2.5",
        `"E01"`: "E01",
    }
    for input, want := range cases {
        var code ResultCode
        if err := code.UnmarshalJSON([]byte(input)); err != nil {
            t.Fatalf("%s: %v", input, err)
        }
        if code.String() != want {
            t.Fatalf("%s: expected %q, got %q", input, want, code)
        }
    }

    var code ResultCode
    if err := code.UnmarshalJSON([]byte(`{"a":1}`)); err == nil {
        t.Fatal("objects are not result codes")
    }
}
