package sensors

import "github.com/relabs-tech/marg_tracker/internal/marg"

type swapXY struct {
	r marg.RawReader
}

// SwapXY exchanges the x and y axes of a reader. Some board layouts
// mount the chips with x and y interchanged relative to the body
// frame; the filter only requires that all three sensors agree on
// which axis is which, so the remap happens at the port.
func SwapXY(r marg.RawReader) marg.RawReader {
	return &swapXY{r: r}
}

func (s *swapXY) ReadAxes() (x, y, z int16, err error) {
	y, x, z, err = s.r.ReadAxes()
	return x, y, z, err
}
