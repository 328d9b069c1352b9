package web

import (
	"context"
	"log"

	"github.com/tabvault/tabvault/internal/record"
)

// TabController performs browser-native tab manipulation on behalf of the
// message surface. The real implementation lives in the host browser's
// background worker; its concurrency is owned by the platform, not here.
type TabController interface {
	// OpenTabSet restores a saved tab set in the browser.
	OpenTabSet(ctx context.Context, ts record.TabSet) error

	// SetFocusMode puts background tabs to sleep (true) or wakes them
	// (false).
	SetFocusMode(ctx context.Context, enabled bool) error
}

// LogTabController is the default TabController for headless use: it logs
// the requested action and succeeds.
type LogTabController struct{}

// OpenTabSet logs the restore request.
func (LogTabController) OpenTabSet(_ context.Context, ts record.TabSet) error {
	log.Printf("web: open tab set %s (%d tabs)", ts.ID, len(ts.Tabs))
	return nil
}

// SetFocusMode logs the focus mode change.
func (LogTabController) SetFocusMode(_ context.Context, enabled bool) error {
	log.Printf("web: focus mode enabled=%v", enabled)
	return nil
}
