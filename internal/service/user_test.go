package service

import (
	"context"
	"errors"
	"testing"
)

func TestUserService_SignIn(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewUserService(store)
	ctx := context.Background()

	first, err := svc.SignIn(ctx, Profile{ProviderUID: "g-1", Name: "Asha", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	second, err := svc.SignIn(ctx, Profile{ProviderUID: "g-1", Name: "Asha K", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second sign-in created a new user: %s != %s", second.ID, first.ID)
	}
	if second.Name != "Asha K" {
		t.Errorf("profile not refreshed: %s", second.Name)
	}

	got, err := svc.GetUser(ctx, first.ID)
	if err != nil || got.ProviderUID != "g-1" {
		t.Errorf("GetUser() = %+v, %v", got, err)
	}
}

func TestUserService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newFakeStore())
	ctx := context.Background()

	if _, err := svc.SignIn(ctx, Profile{}); err == nil {
		t.Error("expected error for empty provider uid")
	}
	if _, err := svc.GetUser(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
