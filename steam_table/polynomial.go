package steam_table

// Polynomial holds coefficients in ascending order: c[0] + c[1]*x + c[2]*x^2 ...
type Polynomial []float64

// Eval evaluates the polynomial with Horner's rule.
func (p Polynomial) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// Derivative returns the coefficient vector of dp/dx.
func (p Polynomial) Derivative() Polynomial {
	if len(p) <= 1 {
		return Polynomial{0}
	}
	d := make(Polynomial, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}
