package ledger

import (
	"fmt"

	"github.com/alexanderramin/siteledger/internal/costing"
	"github.com/alexanderramin/siteledger/internal/recompute"
)

// Mutator is the write surface of a Ledger. *Ledger recomputes after every
// call; the Mutator passed to Batch defers recomputation to the end.
type Mutator interface {
	AddBOQItem(id, name string, quantity, unitPrice float64) error
	SetBOQLine(id string, quantity, unitPrice float64) error
	RenameBOQItem(id, name string) error
	AttachBOQ(parentID, childID string) error
	DetachBOQ(parentID, childID string) error
	RemoveBOQ(id string) ([]string, error)

	AddTask(id string, progress float64) error
	SetTaskProgress(id string, progress float64) error
	AttachTask(parentID, childID string) error
	DetachTask(parentID, childID string) error
	RemoveTask(id string) ([]string, error)

	PutLabor(id string, labor costing.Labor) error
	RemoveLabor(id string) error
	PutEquipment(id string, cost float64) error
	RemoveEquipment(id string) error
	PutPurchase(id string, p costing.Purchase) error
	RemovePurchase(id string) error
	PutInvoice(id string, amount costing.PostedAmount) error
	PutPayment(id string, amount costing.PostedAmount) error

	SetContractValue(v float64) error
	SetExpected(e costing.Expected) error
}

var (
	_ Mutator = (*Ledger)(nil)
	_ Mutator = txn{}
)

// txn runs mutators while the ledger lock is already held by Batch.
type txn struct{ l *Ledger }

func (l *Ledger) locked(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

func (l *Ledger) AddBOQItem(id, name string, quantity, unitPrice float64) error {
	return l.locked(func() error { return l.addBOQItem(id, name, quantity, unitPrice) })
}

func (l *Ledger) SetBOQLine(id string, quantity, unitPrice float64) error {
	return l.locked(func() error { return l.setBOQLine(id, quantity, unitPrice) })
}

func (l *Ledger) RenameBOQItem(id, name string) error {
	return l.locked(func() error { return l.renameBOQItem(id, name) })
}

func (l *Ledger) AttachBOQ(parentID, childID string) error {
	return l.locked(func() error { return l.attachBOQ(parentID, childID) })
}

func (l *Ledger) DetachBOQ(parentID, childID string) error {
	return l.locked(func() error { return l.detachBOQ(parentID, childID) })
}

func (l *Ledger) RemoveBOQ(id string) (removed []string, err error) {
	err = l.locked(func() error {
		removed, err = l.removeBOQ(id)
		return err
	})
	return removed, err
}

func (l *Ledger) AddTask(id string, progress float64) error {
	return l.locked(func() error { return l.addTask(id, progress) })
}

func (l *Ledger) SetTaskProgress(id string, progress float64) error {
	return l.locked(func() error { return l.setTaskProgress(id, progress) })
}

func (l *Ledger) AttachTask(parentID, childID string) error {
	return l.locked(func() error { return l.attachTask(parentID, childID) })
}

func (l *Ledger) DetachTask(parentID, childID string) error {
	return l.locked(func() error { return l.detachTask(parentID, childID) })
}

func (l *Ledger) RemoveTask(id string) (removed []string, err error) {
	err = l.locked(func() error {
		removed, err = l.removeTask(id)
		return err
	})
	return removed, err
}

func (l *Ledger) PutLabor(id string, labor costing.Labor) error {
	return l.locked(func() error { return l.putLabor(id, labor) })
}

func (l *Ledger) RemoveLabor(id string) error {
	return l.locked(func() error { return l.removeLabor(id) })
}

func (l *Ledger) PutEquipment(id string, cost float64) error {
	return l.locked(func() error { return l.putEquipment(id, cost) })
}

func (l *Ledger) RemoveEquipment(id string) error {
	return l.locked(func() error { return l.removeEquipment(id) })
}

func (l *Ledger) PutPurchase(id string, p costing.Purchase) error {
	return l.locked(func() error { return l.putPurchase(id, p) })
}

func (l *Ledger) RemovePurchase(id string) error {
	return l.locked(func() error { return l.removePurchase(id) })
}

func (l *Ledger) PutInvoice(id string, amount costing.PostedAmount) error {
	return l.locked(func() error { return l.putInvoice(id, amount) })
}

func (l *Ledger) PutPayment(id string, amount costing.PostedAmount) error {
	return l.locked(func() error { return l.putPayment(id, amount) })
}

func (l *Ledger) SetContractValue(v float64) error {
	return l.locked(func() error { return l.setContractValue(v) })
}

func (l *Ledger) SetExpected(e costing.Expected) error {
	return l.locked(func() error { return l.setExpected(e) })
}

func (t txn) AddBOQItem(id, name string, quantity, unitPrice float64) error {
	return t.l.addBOQItem(id, name, quantity, unitPrice)
}

func (t txn) SetBOQLine(id string, quantity, unitPrice float64) error {
	return t.l.setBOQLine(id, quantity, unitPrice)
}

func (t txn) RenameBOQItem(id, name string) error {
	return t.l.renameBOQItem(id, name)
}

func (t txn) AttachBOQ(parentID, childID string) error {
	return t.l.attachBOQ(parentID, childID)
}

func (t txn) DetachBOQ(parentID, childID string) error {
	return t.l.detachBOQ(parentID, childID)
}

func (t txn) RemoveBOQ(id string) ([]string, error) {
	return t.l.removeBOQ(id)
}

func (t txn) AddTask(id string, progress float64) error {
	return t.l.addTask(id, progress)
}

func (t txn) AttachTask(parentID, childID string) error {
	return t.l.attachTask(parentID, childID)
}

func (t txn) DetachTask(parentID, childID string) error {
	return t.l.detachTask(parentID, childID)
}

func (t txn) RemoveTask(id string) ([]string, error) {
	return t.l.removeTask(id)
}

func (t txn) RemoveLabor(id string) error {
	return t.l.removeLabor(id)
}

func (t txn) PutEquipment(id string, cost float64) error {
	return t.l.putEquipment(id, cost)
}

func (t txn) RemoveEquipment(id string) error {
	return t.l.removeEquipment(id)
}

func (t txn) RemovePurchase(id string) error {
	return t.l.removePurchase(id)
}

func (t txn) SetContractValue(v float64) error {
	return t.l.setContractValue(v)
}

func (t txn) SetExpected(e costing.Expected) error {
	return t.l.setExpected(e)
}

func (t txn) SetTaskProgress(id string, progress float64) error {
	return t.l.setTaskProgress(id, progress)
}

func (t txn) PutLabor(id string, labor costing.Labor) error {
	return t.l.putLabor(id, labor)
}

func (t txn) PutPurchase(id string, p costing.Purchase) error {
	return t.l.putPurchase(id, p)
}

func (t txn) PutInvoice(id string, amount costing.PostedAmount) error {
	return t.l.putInvoice(id, amount)
}

func (t txn) PutPayment(id string, amount costing.PostedAmount) error {
	return t.l.putPayment(id, amount)
}

// Unlocked implementations. Each validates, mutates, then touches the input
// keys it changed.

func (l *Ledger) touch(keys ...recompute.Key) {
	l.sched.Touch(keys...)
}

func (l *Ledger) addBOQItem(id, name string, quantity, unitPrice float64) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.boq.Add(id, quantity*unitPrice); err != nil {
		return fmt.Errorf("adding BOQ item: %w", err)
	}
	l.boqNames[id] = name
	l.touch(KeyBOQLeaves, KeyBOQNames)
	return nil
}

func (l *Ledger) setBOQLine(id string, quantity, unitPrice float64) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.boq.SetLeafValue(id, quantity*unitPrice); err != nil {
		return fmt.Errorf("setting BOQ line: %w", err)
	}
	l.touch(KeyBOQLeaves)
	return nil
}

func (l *Ledger) renameBOQItem(id, name string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if !l.boq.Has(id) {
		return fmt.Errorf("renaming BOQ item: %s not found", id)
	}
	l.boqNames[id] = name
	l.touch(KeyBOQNames)
	return nil
}

func (l *Ledger) attachBOQ(parentID, childID string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.boq.Attach(parentID, childID); err != nil {
		return fmt.Errorf("attaching BOQ item: %w", err)
	}
	l.touch(KeyBOQStructure)
	return nil
}

func (l *Ledger) detachBOQ(parentID, childID string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.boq.Detach(parentID, childID); err != nil {
		return fmt.Errorf("detaching BOQ item: %w", err)
	}
	l.touch(KeyBOQStructure)
	return nil
}

func (l *Ledger) removeBOQ(id string) ([]string, error) {
	if err := l.checkMutable(); err != nil {
		return nil, err
	}
	removed, err := l.boq.Remove(id)
	if err != nil {
		return nil, fmt.Errorf("removing BOQ item: %w", err)
	}
	for _, r := range removed {
		delete(l.boqNames, r)
	}
	l.touch(KeyBOQStructure, KeyBOQNames)
	return removed, nil
}

func (l *Ledger) addTask(id string, progress float64) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.tasks.Add(id, progress); err != nil {
		return fmt.Errorf("adding task: %w", err)
	}
	l.touch(KeyTaskLeaves)
	return nil
}

func (l *Ledger) setTaskProgress(id string, progress float64) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.tasks.SetLeafValue(id, progress); err != nil {
		return fmt.Errorf("setting task progress: %w", err)
	}
	l.touch(KeyTaskLeaves)
	return nil
}

func (l *Ledger) attachTask(parentID, childID string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.tasks.Attach(parentID, childID); err != nil {
		return fmt.Errorf("attaching task: %w", err)
	}
	l.touch(KeyTaskStructure)
	return nil
}

func (l *Ledger) detachTask(parentID, childID string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	if err := l.tasks.Detach(parentID, childID); err != nil {
		return fmt.Errorf("detaching task: %w", err)
	}
	l.touch(KeyTaskStructure)
	return nil
}

func (l *Ledger) removeTask(id string) ([]string, error) {
	if err := l.checkMutable(); err != nil {
		return nil, err
	}
	removed, err := l.tasks.Remove(id)
	if err != nil {
		return nil, fmt.Errorf("removing task: %w", err)
	}
	l.touch(KeyTaskStructure)
	return removed, nil
}

func (l *Ledger) putLabor(id string, labor costing.Labor) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.labor[id] = labor
	l.touch(KeyLabor)
	return nil
}

func (l *Ledger) removeLabor(id string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	delete(l.labor, id)
	l.touch(KeyLabor)
	return nil
}

func (l *Ledger) putEquipment(id string, cost float64) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.equipment[id] = cost
	l.touch(KeyEquipment)
	return nil
}

func (l *Ledger) removeEquipment(id string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	delete(l.equipment, id)
	l.touch(KeyEquipment)
	return nil
}

func (l *Ledger) putPurchase(id string, p costing.Purchase) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.purchases[id] = p
	l.touch(KeyPurchases)
	return nil
}

func (l *Ledger) removePurchase(id string) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	delete(l.purchases, id)
	l.touch(KeyPurchases)
	return nil
}

func (l *Ledger) putInvoice(id string, amount costing.PostedAmount) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.invoices[id] = amount
	l.touch(KeyInvoices)
	return nil
}

func (l *Ledger) putPayment(id string, amount costing.PostedAmount) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.payments[id] = amount
	l.touch(KeyPayments)
	return nil
}

func (l *Ledger) setContractValue(v float64) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.contract = v
	l.touch(KeyContract)
	return nil
}

func (l *Ledger) setExpected(e costing.Expected) error {
	if err := l.checkMutable(); err != nil {
		return err
	}
	l.expected = e
	l.touch(KeyExpected)
	return nil
}
