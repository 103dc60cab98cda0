package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hnrobert/pagegate/internal/admin"
	"github.com/hnrobert/pagegate/internal/audit"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/logger"
	"github.com/hnrobert/pagegate/internal/pages"
	"github.com/hnrobert/pagegate/internal/profile"
)

const recentAuditLimit = 20

type AdminView struct {
	Accounts []admin.Account
	Pages    []string
	Roles    []string
	Recent   []audit.Event

	// create form values kept after a failed submission
	NewUsername string
	NewName     string
	NewRole     string
}

type ProfileView struct {
	Username string
	Name     string
}

func (a *App) adminPage(ctx context.Context, req *pages.Request) (*pages.View, error) {
	if err := admin.RequireAdmin(req.Session); err != nil {
		return nil, err
	}

	view := &pages.View{Title: "Admin", Template: "admin"}
	data := &AdminView{Pages: a.universe.IDs(), Roles: admin.Roles}

	if req.Posted() {
		switch req.Form.Get("action") {
		case "update":
			view.Flash, view.FlashKind = a.applyAccountUpdate(ctx, req)
		case "create":
			view.Flash, view.FlashKind = a.applyCreateUser(ctx, req)
			if view.FlashKind != "ok" {
				data.NewUsername = strings.TrimSpace(req.Form.Get("new_username"))
				data.NewName = req.Form.Get("new_name")
				data.NewRole = req.Form.Get("new_role")
			}
		default:
			view.Flash, view.FlashKind = "Unknown action.", "err"
		}
	}

	data.Accounts = a.admins.Accounts()
	recent, err := a.audit.Recent(ctx, recentAuditLimit)
	if err != nil {
		logger.Warn("Failed to read audit trail: %v", err)
	}
	data.Recent = recent
	view.Data = data
	return view, nil
}

// applyAccountUpdate saves role and permissions, then the active flag. The
// two writes are independent; a failure in the second leaves the first.
func (a *App) applyAccountUpdate(ctx context.Context, req *pages.Request) (string, string) {
	actor := req.Session.Username()
	target := req.Form.Get("username")
	role := req.Form.Get("role")
	active := req.Form.Get("active") != ""
	perms := a.universe.Filter(req.Form["permissions"])

	if err := a.admins.UpdatePermissions(target, perms, role); err != nil {
		logger.Warn("Admin %s failed to update permissions for %s: %v", actor, target, err)
		return humanAdminError(target, err), "err"
	}
	logger.Info("Admin %s set role=%s permissions=%v for %s", actor, role, perms, target)
	a.recordCtx(ctx, &audit.Event{
		Action:   audit.ActionPermissions,
		Actor:    actor,
		Target:   target,
		RemoteIP: req.RemoteIP,
		Details:  map[string]any{"role": role, "permissions": perms},
	})
	msg := fmt.Sprintf("Permissions and role updated successfully for %s!", target)

	if err := a.admins.UpdateActiveStatus(target, active); err != nil {
		logger.Warn("Admin %s failed to update active status for %s: %v", actor, target, err)
		return msg + " " + humanAdminError(target, err), "warn"
	}
	status := "deactivated"
	if active {
		status = "activated"
	}
	logger.Info("Admin %s %s user %s", actor, status, target)
	a.recordCtx(ctx, &audit.Event{
		Action:   audit.ActionActiveStatus,
		Actor:    actor,
		Target:   target,
		RemoteIP: req.RemoteIP,
		Details:  map[string]any{"active": active},
	})
	return fmt.Sprintf("%s User %s has been %s!", msg, target, status), "ok"
}

func (a *App) applyCreateUser(ctx context.Context, req *pages.Request) (string, string) {
	actor := req.Session.Username()
	username := strings.TrimSpace(req.Form.Get("new_username"))
	role := req.Form.Get("new_role")

	err := a.admins.CreateUser(username, req.Form.Get("new_name"), req.Form.Get("new_password"), role)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrMissingFields):
		return "Please fill in all fields to create a new user.", "err"
	case errors.Is(err, admin.ErrDuplicateUser):
		return fmt.Sprintf("User '%s' already exists. Choose a different username.", username), "warn"
	default:
		logger.Warn("Admin %s failed to create user %s: %v", actor, username, err)
		return humanAdminError(username, err), "err"
	}

	if role == "" {
		role = credstore.RoleUser
	}
	logger.Info("Admin %s created user %s (role=%s)", actor, username, role)
	a.recordCtx(ctx, &audit.Event{
		Action:   audit.ActionCreateUser,
		Actor:    actor,
		Target:   username,
		RemoteIP: req.RemoteIP,
		Details:  map[string]any{"role": role},
	})
	return fmt.Sprintf("New user '%s' created successfully!", username), "ok"
}

func humanAdminError(username string, err error) string {
	switch {
	case errors.Is(err, admin.ErrUnknownUser):
		return fmt.Sprintf("User %s not found.", username)
	case errors.Is(err, admin.ErrInvalidRole):
		return "Invalid role."
	case errors.Is(err, credstore.ErrStoreSave):
		return "Could not save changes. Please try again."
	default:
		return "Request failed."
	}
}

func (a *App) profilePage(ctx context.Context, req *pages.Request) (*pages.View, error) {
	username := req.Session.Username()
	view := &pages.View{Title: "Profile", Template: "profile"}

	if req.Posted() {
		err := a.profiles.UpdateOwnProfile(username, req.Form.Get("name"), req.Form.Get("password"))
		switch {
		case err == nil:
			logger.Info("User %s updated their profile", username)
			a.recordCtx(ctx, &audit.Event{Action: audit.ActionUpdateProfile, Actor: username, Target: username, RemoteIP: req.RemoteIP})
			view.Flash, view.FlashKind = "Profile updated successfully!", "ok"
		case errors.Is(err, profile.ErrMissingFields):
			view.Flash, view.FlashKind = "Name and password are required.", "err"
		case errors.Is(err, profile.ErrUnknownUser):
			view.Flash, view.FlashKind = fmt.Sprintf("No profile found for %s.", username), "err"
		default:
			logger.Warn("Profile update for %s failed: %v", username, err)
			view.Flash, view.FlashKind = "Could not save changes. Please try again.", "err"
		}
	}

	data := &ProfileView{Username: username}
	if p, err := a.profiles.Get(username); err == nil {
		data.Name = p.Name
	}
	view.Data = data
	return view, nil
}

func (a *App) recordCtx(ctx context.Context, ev *audit.Event) {
	if err := a.audit.Record(ctx, ev); err != nil {
		logger.Warn("Audit write failed for %s: %v", ev.Action, err)
	}
}
