package agent

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxSuffixDigits bounds the numeric suffix parsed from an existing name.
const maxSuffixDigits = 9

// NameAlreadyExists reports whether an agent other than mac already uses name.
func (r *Registry) NameAlreadyExists(name, mac string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameExistsLocked(name, mac)
}

func (r *Registry) nameExistsLocked(name, mac string) bool {
	for m, a := range r.agents {
		if m != mac && a.Name == name {
			return true
		}
	}
	return false
}

// RenameOne gives the agent registered under mac a free name of the form
// <alpha>_<n>, where n counts up from the agent's current suffix.
//
// The device is told its new name first; the registry only stores it,
// and clears ToRename, once the device accepted it. When no candidate
// fits within NameMaxLength, ErrRenameExhausted is returned and the
// agent is left unchanged.
func (r *Registry) RenameOne(ctx context.Context, mac string) error {
	r.mu.RLock()
	a, ok := r.agents[mac]
	if !ok {
		r.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, mac)
	}
	current := a.snapshot()
	candidate, err := r.freeNameLocked(current.Name, mac)
	r.mu.RUnlock()

	if err != nil {
		r.logger.Error("agent rename failed", "name", current.Name, "mac", mac, "error", err)
		return err
	}

	if err := r.prober.Rename(ctx, *current, candidate); err != nil {
		r.logger.Warn("agent rename rejected", "name", current.Name, "mac", mac, "new_name", candidate, "error", err)
		return fmt.Errorf("%w: renaming %s: %w", ErrProbeFailed, mac, err)
	}

	r.mu.Lock()
	a, ok = r.agents[mac]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, mac)
	}
	a.renameTo(candidate, r.now())
	r.refreshListSize()
	snap := a.snapshot()
	r.mu.Unlock()

	r.logger.Info("agent renamed", "old_name", current.Name, "name", snap.Name, "mac", mac)
	r.observer.AgentRenamed(*snap, current.Name)
	return nil
}

// freeNameLocked finds the first unused <alpha>_<n> after name. Callers hold r.mu.
func (r *Registry) freeNameLocked(name, mac string) (string, error) {
	alpha, digit := splitName(name)
	for {
		digit++
		candidate := fmt.Sprintf("%s_%d", alpha, digit)
		if len(candidate) > NameMaxLength {
			return "", fmt.Errorf("%w: %q", ErrRenameExhausted, name)
		}
		if !r.nameExistsLocked(candidate, mac) {
			return candidate, nil
		}
	}
}

// splitName splits "<alpha>_<digit>..." on underscores. Digit is the
// leading integer of the second segment, or 0.
func splitName(name string) (string, int) {
	parts := strings.FieldsFunc(name, func(c rune) bool { return c == '_' })
	if len(parts) == 0 {
		return name, 0
	}
	if len(parts) == 1 {
		return parts[0], 0
	}

	n := 0
	for n < len(parts[1]) && n < maxSuffixDigits && parts[1][n] >= '0' && parts[1][n] <= '9' {
		n++
	}
	digit, err := strconv.Atoi(parts[1][:n])
	if err != nil {
		digit = 0
	}
	return parts[0], digit
}

// RenamePending renames every agent flagged ToRename and returns how many
// were renamed. Failures leave the flag set for the next pass. An agent
// whose name no longer collides has its flag cleared instead.
func (r *Registry) RenamePending(ctx context.Context) int {
	r.mu.RLock()
	var pending []string
	for mac, a := range r.agents {
		if a.ToRename {
			pending = append(pending, mac)
		}
	}
	r.mu.RUnlock()
	sort.Strings(pending)

	renamed := 0
	for _, mac := range pending {
		if ctx.Err() != nil {
			break
		}
		if !r.stillColliding(mac) {
			continue
		}
		if err := r.RenameOne(ctx, mac); err != nil {
			continue
		}
		renamed++
	}
	return renamed
}

// stillColliding reports whether the agent under mac is flagged and its
// name is still used by another MAC. A stale flag is cleared.
func (r *Registry) stillColliding(mac string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[mac]
	if !ok || !a.ToRename {
		return false
	}
	if r.nameExistsLocked(a.Name, mac) {
		return true
	}
	a.ToRename = false
	r.logger.Info("agent name no longer in use elsewhere, rename dropped", "name", a.Name, "mac", mac)
	return false
}
