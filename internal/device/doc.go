// Package device manages the devices installed in rooms.
//
// A device has a name, a free-form type, an optional network address, a
// boolean state and an integer variable. New devices start with state false
// and variable 0. After creation the only mutation is ToggleState.
//
// # Verified writes
//
// Writes check their own effect inside the transaction that made them:
//
//   - Delete counts the table before and after and fails with
//     database.ErrDeleteNotVerified unless exactly one row went away.
//   - ToggleState re-reads the device after the update and fails with
//     ErrStateNotChanged if the state did not flip.
//
// A failed check rolls the transaction back, so callers never see a
// successful no-op.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//
//	dev, err := repo.Create(ctx, device.NewDevice{
//	    Name: "Lamp",
//	    Typ:  "Socket",
//	    Room: kitchen.ID,
//	})
//	if err != nil {
//	    return err
//	}
//
//	dev, err = repo.ToggleState(ctx, dev.ID) // dev.State is now true
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines.
package device
