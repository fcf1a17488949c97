package hardware

import (
	"errors"
	"math"
)

const kelvinOffset = 273.15

// ThermistorParams describes the divider and a three-point calibration.
type ThermistorParams struct {
	SeriesOhms   float64
	VRef         float64
	OffsetC      float64   // added to the computed Celsius value
	CalibrationC []float64 // three reference temperatures
	CalibrationR []float64 // measured resistance at each reference
}

// Thermistor converts divider voltages to temperatures with the
// Steinhart-Hart model 1/T = A + B*ln(R) + C*ln(R)^3.
type Thermistor struct {
	seriesOhms float64
	vref       float64
	offsetC    float64
	a, b, c    float64
}

var errCalibration = errors.New("calibration needs three distinct points with positive resistance")

// NewThermistor solves the Steinhart-Hart coefficients from the calibration.
func NewThermistor(p ThermistorParams) (*Thermistor, error) {
	if len(p.CalibrationC) != 3 || len(p.CalibrationR) != 3 {
		return nil, errCalibration
	}
	if p.SeriesOhms <= 0 || p.VRef <= 0 {
		return nil, errors.New("series resistance and reference voltage must be positive")
	}
	var m [3][3]float64
	var y [3]float64
	for i := 0; i < 3; i++ {
		if p.CalibrationR[i] <= 0 {
			return nil, errCalibration
		}
		l := math.Log(p.CalibrationR[i])
		m[i] = [3]float64{1, l, l * l * l}
		y[i] = 1 / (p.CalibrationC[i] + kelvinOffset)
	}
	coef, ok := solve3(m, y)
	if !ok {
		return nil, errCalibration
	}
	return &Thermistor{
		seriesOhms: p.SeriesOhms,
		vref:       p.VRef,
		offsetC:    p.OffsetC,
		a:          coef[0],
		b:          coef[1],
		c:          coef[2],
	}, nil
}

// Resistance returns the thermistor resistance for a divider voltage.
func (t *Thermistor) Resistance(volts float64) (float64, bool) {
	if volts <= 0 || volts >= t.vref {
		return 0, false
	}
	return t.seriesOhms * (t.vref - volts) / volts, true
}

// Celsius converts a resistance to degrees Celsius (offset applied).
func (t *Thermistor) Celsius(ohms float64) float64 {
	l := math.Log(ohms)
	kelvin := 1 / (t.a + t.b*l + t.c*l*l*l)
	return kelvin - kelvinOffset + t.offsetC
}

// Fahrenheit converts a divider voltage straight to degrees F.
// It returns SensorFault for voltages outside the divider's range.
func (t *Thermistor) Fahrenheit(volts float64) float64 {
	r, ok := t.Resistance(volts)
	if !ok {
		return SensorFault
	}
	f := t.Celsius(r)*9/5 + 32
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return SensorFault
	}
	return f
}

// solve3 solves m*x = y by Cramer's rule.
func solve3(m [3][3]float64, y [3]float64) ([3]float64, bool) {
	det := det3(m)
	if math.Abs(det) < 1e-9 {
		return [3]float64{}, false
	}
	var out [3]float64
	for col := 0; col < 3; col++ {
		mc := m
		for row := 0; row < 3; row++ {
			mc[row][col] = y[row]
		}
		out[col] = det3(mc) / det
	}
	return out, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
