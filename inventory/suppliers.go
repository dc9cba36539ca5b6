package inventory

import "context"

// SupplierInput carries the editable fields of a supplier.
type SupplierInput struct {
	Name          string
	Phone         string
	Email         string
	ContactPerson string
	Address       string
}

// Directory owns supplier records. Purchases reference suppliers by ID only;
// deleting a referenced supplier is allowed.
type Directory struct {
	store SupplierStore
}

func NewDirectory(store SupplierStore) *Directory {
	return &Directory{store: store}
}

func (d *Directory) Get(ctx context.Context, id int64) (*Supplier, error) {
	s, err := d.store.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &NotFoundError{Kind: "Supplier", ID: id}
	}
	return s, nil
}

func (d *Directory) List(ctx context.Context) ([]Supplier, error) {
	return d.store.ListSuppliers(ctx)
}

func (d *Directory) Create(ctx context.Context, in SupplierInput) (*Supplier, error) {
	s := Supplier{
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		ContactPerson: in.ContactPerson,
		Address:       in.Address,
	}
	if err := checkStruct(s); err != nil {
		return nil, err
	}
	id, err := d.store.CreateSupplier(ctx, s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}

// Update changes name, phone and email. Contact person and address keep
// their stored values.
func (d *Directory) Update(ctx context.Context, id int64, in SupplierInput) (*Supplier, error) {
	s, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Name = in.Name
	s.Phone = in.Phone
	s.Email = in.Email
	if err := checkStruct(*s); err != nil {
		return nil, err
	}
	found, err := d.store.UpdateSupplier(ctx, *s)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Kind: "Supplier", ID: id}
	}
	return s, nil
}

func (d *Directory) Delete(ctx context.Context, id int64) error {
	found, err := d.store.DeleteSupplier(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Kind: "Supplier", ID: id}
	}
	return nil
}
