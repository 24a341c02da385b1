package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/siteledger/internal/db"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/lock"
	"github.com/alexanderramin/siteledger/internal/testutil"
	"github.com/stretchr/testify/require"
)

// services wires every service to one in-memory database.
type services struct {
	uow        db.UnitOfWork
	projects   ProjectService
	boq        BOQService
	tasks      TaskService
	dprs       DPRService
	equipment  EquipmentService
	purchases  PurchaseService
	billing    BillingService
	quotations QuotationService
	dashboard  DashboardService
	imports    ImportService
}

func setupServices(t *testing.T) *services {
	t.Helper()
	uow := testutil.NewTestUoW(testutil.NewTestDB(t))
	return newServices(uow)
}

func newServices(uow db.UnitOfWork) *services {
	locker := lock.New()
	return &services{
		uow:        uow,
		projects:   NewProjectService(uow, locker),
		boq:        NewBOQService(uow, locker),
		tasks:      NewTaskService(uow, locker),
		dprs:       NewDPRService(uow, locker),
		equipment:  NewEquipmentService(uow, locker),
		purchases:  NewPurchaseService(uow, locker),
		billing:    NewBillingService(uow, locker),
		quotations: NewQuotationService(uow),
		dashboard:  NewDashboardService(uow),
		imports:    NewImportService(uow),
	}
}

func (s *services) createProject(t *testing.T, name string, opts ...testutil.ProjectOption) *domain.Project {
	t.Helper()
	p := testutil.NewTestProject(name, opts...)
	require.NoError(t, s.projects.Create(context.Background(), p))
	return p
}

func (s *services) addBOQ(t *testing.T, projectID, name string, qty, price float64, parent *domain.BOQItem) *domain.BOQItem {
	t.Helper()
	opts := []testutil.BOQOption{testutil.WithBOQLine(qty, price)}
	if parent != nil {
		opts = append(opts, testutil.WithBOQParent(parent.ID))
	}
	item := testutil.NewTestBOQItem(projectID, name, opts...)
	require.NoError(t, s.boq.Add(context.Background(), item))
	return item
}

func (s *services) addTask(t *testing.T, projectID, name string, progress float64, parent *domain.Task) *domain.Task {
	t.Helper()
	opts := []testutil.TaskOption{testutil.WithLeafProgress(progress)}
	if parent != nil {
		opts = append(opts, testutil.WithTaskParent(parent.ID))
	}
	task := testutil.NewTestTask(projectID, name, opts...)
	require.NoError(t, s.tasks.Add(context.Background(), task))
	return task
}

func (s *services) reload(t *testing.T, projectID string) *domain.Project {
	t.Helper()
	p, err := s.projects.GetByID(context.Background(), projectID)
	require.NoError(t, err)
	return p
}
