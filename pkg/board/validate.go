package board

import (
	"fmt"
	"math"
)

// Validate checks the fields every stored item must satisfy.
func (it *Item) Validate() error {
	var fields FieldErrors

	if it.ID == "" {
		fields.Add("id", "required")
	}
	if err := it.Type.Validate(); err != nil {
		fields.Add("type", err.Error())
	}
	if !finite(it.X) {
		fields.Add("x", "must be a finite number")
	}
	if !finite(it.Y) {
		fields.Add("y", "must be a finite number")
	}
	if !finite(it.Width) || it.Width < 0 {
		fields.Add("width", "must be a non-negative number")
	}
	if h, ok := it.Height.Value(); ok && (!finite(h) || h < 0) {
		fields.Add("height", `must be a non-negative number or "auto"`)
	}
	if it.LabResultData != nil {
		if err := it.LabResultData.Validate(); err != nil {
			fields.Add("labResultData", err.Error())
		}
	}

	return fields.Err()
}

// Validate checks a lab result's enums and range.
func (d *LabResultData) Validate() error {
	if err := d.Status.Validate(); err != nil {
		return err
	}
	if err := d.Trend.Validate(); err != nil {
		return err
	}
	if d.Range.Min >= d.Range.Max {
		return fmt.Errorf("range.min (%g) must be less than range.max (%g)", d.Range.Min, d.Range.Max)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
