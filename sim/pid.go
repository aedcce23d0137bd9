package sim

// PIDConfig holds the controller gains and output bounds.
type PIDConfig struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	OutputMin float64 `yaml:"output_min"`
	OutputMax float64 `yaml:"output_max" validate:"gtefield=OutputMin"`
}

// DefaultPIDConfig returns gains tuned for a 0.7 success-rate target.
func DefaultPIDConfig() PIDConfig {
	return PIDConfig{Kp: 0.5, Ki: 0.1, Kd: 0.05, OutputMin: -0.2, OutputMax: 0.2}
}

// integralLimit bounds the integral accumulator (anti-windup).
const integralLimit = 1.0

// DifficultyController maps a rolling success rate to an entropy delta.
// The error is setpoint minus performance, so a learner below target yields a
// positive delta and a learner above target a negative one.
//
// The controller is pure state and arithmetic; it never touches a simulator.
type DifficultyController struct {
	cfg       PIDConfig
	setpoint  float64
	integral  float64
	lastError float64
}

// NewDifficultyController creates a controller with zeroed state.
func NewDifficultyController(cfg PIDConfig, setpoint float64) *DifficultyController {
	c := &DifficultyController{cfg: cfg}
	c.SetSetpoint(setpoint)
	return c
}

// Setpoint returns the target success rate.
func (c *DifficultyController) Setpoint() float64 { return c.setpoint }

// SetSetpoint assigns the target success rate, clamped to [0, 1].
func (c *DifficultyController) SetSetpoint(v float64) {
	c.setpoint = clamp(v, 0, 1)
}

// Integral returns the anti-windup accumulator.
func (c *DifficultyController) Integral() float64 { return c.integral }

// LastError returns the error seen by the previous Update.
func (c *DifficultyController) LastError() float64 { return c.lastError }

// Update feeds the current performance and returns the clamped output.
func (c *DifficultyController) Update(currentPerformance, dt float64) float64 {
	err := c.setpoint - currentPerformance

	p := c.cfg.Kp * err

	c.integral = clamp(c.integral+err*dt, -integralLimit, integralLimit)
	i := c.cfg.Ki * c.integral

	d := 0.0
	if dt > 0 {
		d = c.cfg.Kd * (err - c.lastError) / dt
	}
	c.lastError = err

	return clamp(p+i+d, c.cfg.OutputMin, c.cfg.OutputMax)
}

// Reset zeroes the integral and last error.
func (c *DifficultyController) Reset() {
	c.integral = 0
	c.lastError = 0
}

// restore loads persisted internal state.
func (c *DifficultyController) restore(integral, lastError float64) {
	c.integral = integral
	c.lastError = lastError
}
