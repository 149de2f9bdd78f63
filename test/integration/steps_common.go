package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/cucumber/godog"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server/middleware"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	signers      map[string]*namedSigner
	header       string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:      tc,
		signers: make(map[string]*namedSigner),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(s.reset)

	// Background steps
	sc.Step(`^an edge context server is running$`, s.anEdgeContextServerIsRunning)

	// Key steps
	sc.Step(`^a signing key "([^"]*)" stored as the (current|previous|next) key$`, s.aSigningKeyStoredAs)
	sc.Step(`^the keys are rotated$`, s.theKeysAreRotated)
	sc.Step(`^the (current|previous|next) key is cleared$`, s.theKeyIsCleared)

	// Header steps
	sc.Step(`^an edge context for LoID "([^"]*)"$`, s.anEdgeContextForLoID)
	sc.Step(`^an edge context for LoID "([^"]*)" with a token for "([^"]*)" signed by "([^"]*)"$`, s.anEdgeContextWithToken)
	sc.Step(`^an edge context for LoID "([^"]*)" with an expired token for "([^"]*)" signed by "([^"]*)"$`, s.anEdgeContextWithExpiredToken)
	sc.Step(`^an edge context header "([^"]*)"$`, s.anEdgeContextHeader)

	// Request steps
	sc.Step(`^I request "([^"]*)"$`, s.iRequest)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the user should be logged in as "([^"]*)"$`, s.theUserShouldBeLoggedInAs)
	sc.Step(`^the user should not be logged in$`, s.theUserShouldNotBeLoggedIn)
	sc.Step(`^the LoID should be "([^"]*)"$`, s.theLoIDShouldBe)
	sc.Step(`^the event field "([^"]*)" should be "([^"]*)"$`, s.theEventFieldShouldBe)
	sc.Step(`^the public keys should include "([^"]*)"$`, s.thePublicKeysShouldInclude)
	sc.Step(`^the public keys should not include "([^"]*)"$`, s.thePublicKeysShouldNotInclude)
}

func (s *StepsContext) reset(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	s.response = nil
	s.responseBody = nil
	s.header = ""
	clear(s.signers)
	return ctx, s.tc.Reset()
}

// Background steps

func (s *StepsContext) anEdgeContextServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

// Request steps

func (s *StepsContext) iRequest(path string) error {
	req, err := http.NewRequest(http.MethodGet, s.tc.Server.ServerURL+path, nil)
	if err != nil {
		return err
	}
	if s.header != "" {
		req.Header.Set(middleware.DefaultHeader, s.header)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) whoami() (endpoints.WhoamiResponse, error) {
	var resp endpoints.WhoamiResponse
	if err := s.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return resp, err
	}
	if err := json.Unmarshal(s.responseBody, &resp); err != nil {
		return resp, fmt.Errorf("failed to parse whoami response: %w", err)
	}
	return resp, nil
}

func (s *StepsContext) theUserShouldBeLoggedInAs(userID string) error {
	resp, err := s.whoami()
	if err != nil {
		return err
	}
	if !resp.LoggedIn || resp.UserID != userID {
		return fmt.Errorf("expected user %q to be logged in, got logged_in=%v user_id=%q", userID, resp.LoggedIn, resp.UserID)
	}
	return nil
}

func (s *StepsContext) theUserShouldNotBeLoggedIn() error {
	resp, err := s.whoami()
	if err != nil {
		return err
	}
	if resp.LoggedIn {
		return fmt.Errorf("expected user to be logged out, got user_id=%q", resp.UserID)
	}
	return nil
}

func (s *StepsContext) theLoIDShouldBe(loid string) error {
	resp, err := s.whoami()
	if err != nil {
		return err
	}
	if resp.LoID != loid {
		return fmt.Errorf("expected LoID %q, got %q", loid, resp.LoID)
	}
	return nil
}

func (s *StepsContext) theEventFieldShouldBe(name, value string) error {
	resp, err := s.whoami()
	if err != nil {
		return err
	}
	got, ok := resp.EventFields[name]
	if !ok {
		return fmt.Errorf("event field %q missing from %v", name, resp.EventFields)
	}
	if fmt.Sprint(got) != value {
		return fmt.Errorf("expected event field %q to be %q, got %v", name, value, got)
	}
	return nil
}

func (s *StepsContext) publicKeys() ([]string, error) {
	if err := s.iRequest("/public_keys"); err != nil {
		return nil, err
	}
	if err := s.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return nil, err
	}
	return strings.Fields(string(s.responseBody)), nil
}

func (s *StepsContext) thePublicKeysShouldInclude(name string) error {
	signer, err := s.signer(name)
	if err != nil {
		return err
	}
	keys, err := s.publicKeys()
	if err != nil {
		return err
	}
	if !slices.Contains(keys, signer.KeyID()) {
		return fmt.Errorf("expected key %q (%s) in %v", name, signer.KeyID(), keys)
	}
	return nil
}

func (s *StepsContext) thePublicKeysShouldNotInclude(name string) error {
	signer, err := s.signer(name)
	if err != nil {
		return err
	}
	keys, err := s.publicKeys()
	if err != nil {
		return err
	}
	if slices.Contains(keys, signer.KeyID()) {
		return fmt.Errorf("expected key %q (%s) to be absent from %v", name, signer.KeyID(), keys)
	}
	return nil
}
