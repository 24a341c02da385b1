package cli

import (
	"context"
	"time"

	"github.com/alexanderramin/siteledger/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects   service.ProjectService
	BOQ        service.BOQService
	Tasks      service.TaskService
	DPRs       service.DPRService
	Equipment  service.EquipmentService
	Purchases  service.PurchaseService
	Billing    service.BillingService
	Quotations service.QuotationService
	Dashboard  service.DashboardService
	Import     service.ImportService

	// Serve runs the HTTP API on addr until ctx is cancelled. An empty addr
	// means the configured default.
	Serve func(ctx context.Context, addr string) error

	// IsInteractive reports whether stdin is a terminal; forms are only
	// offered when it is.
	IsInteractive func() bool

	// Now is the clock used for default dates. Nil means time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "siteledger" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "siteledger",
		Short:         "Construction project costs and progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newProjectCmd(app),
		newBOQCmd(app),
		newTaskCmd(app),
		newDPRCmd(app),
		newEquipmentCmd(app),
		newPurchaseCmd(app),
		newInvoiceCmd(app),
		newPaymentCmd(app),
		newQuoteCmd(app),
		newImportCmd(app),
		newStatusCmd(app),
		newServeCmd(app),
	)

	return root
}
