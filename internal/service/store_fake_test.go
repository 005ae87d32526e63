package service

import (
	"context"
	"encoding/json"
	"errors"
)

// fakeStore is an in-test store.Client. Each call is recorded; any
// method without a stubbed function returns a zero payload.
type fakeStore struct {
	calls []string

	signUpFn   func(email, password string, metadata map[string]any) (json.RawMessage, error)
	signInFn   func(email, password string) (json.RawMessage, error)
	recoverFn  func(email, redirectTo string) (json.RawMessage, error)
	authUserFn func(token string) (json.RawMessage, error)
	insertFn   func(table string, rows any) (json.RawMessage, error)
	selectFn   func(table, query string) (json.RawMessage, error)
	updateFn   func(table string, id int64, fields map[string]any) (json.RawMessage, error)
	deleteFn   func(table string, id int64) (json.RawMessage, error)
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) SignUp(_ context.Context, email, password string, metadata map[string]any) (json.RawMessage, error) {
	f.record("signup")
	if f.signUpFn != nil {
		return f.signUpFn(email, password, metadata)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeStore) SignInWithPassword(_ context.Context, email, password string) (json.RawMessage, error) {
	f.record("signin")
	if f.signInFn != nil {
		return f.signInFn(email, password)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeStore) SendPasswordReset(_ context.Context, email, redirectTo string) (json.RawMessage, error) {
	f.record("recover")
	if f.recoverFn != nil {
		return f.recoverFn(email, redirectTo)
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeStore) AuthUser(_ context.Context, token string) (json.RawMessage, error) {
	f.record("authuser")
	if f.authUserFn != nil {
		return f.authUserFn(token)
	}
	return nil, errors.New("authuser not stubbed")
}

func (f *fakeStore) Insert(_ context.Context, table string, rows any) (json.RawMessage, error) {
	f.record("insert " + table)
	if f.insertFn != nil {
		return f.insertFn(table, rows)
	}
	return json.RawMessage(`[]`), nil
}

func (f *fakeStore) Select(_ context.Context, table, query string) (json.RawMessage, error) {
	f.record("select " + table)
	if f.selectFn != nil {
		return f.selectFn(table, query)
	}
	return json.RawMessage(`[]`), nil
}

func (f *fakeStore) Update(_ context.Context, table string, id int64, fields map[string]any) (json.RawMessage, error) {
	f.record("update " + table)
	if f.updateFn != nil {
		return f.updateFn(table, id, fields)
	}
	return json.RawMessage(`[]`), nil
}

func (f *fakeStore) Delete(_ context.Context, table string, id int64) (json.RawMessage, error) {
	f.record("delete " + table)
	if f.deleteFn != nil {
		return f.deleteFn(table, id)
	}
	return json.RawMessage(`[]`), nil
}
