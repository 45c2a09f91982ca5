// Package clock implements the maketic/gametic dual-clock loop driver
// and the PID controller that keeps each peer's adjusted clock in sync
// with the tic rate the remote side is actually consuming at,
// grounded on d_loop.rs and the PIDController in net/client.rs.
package clock

// PIDController smooths the per-tic latency error signal reported by
// the window engine into a millisecond clock offset.
type PIDController struct {
	Kp, Ki, Kd float64
	cumulError int32
	lastError  int32
	lastOffset int32
}

// NewPIDController returns a controller tuned with the protocol's
// fixed gains (Kp=0.1, Ki=0.01, Kd=0.02).
func NewPIDController() *PIDController {
	return &PIDController{Kp: 0.1, Ki: 0.01, Kd: 0.02}
}

// Update folds in the latest error sample (measured latency minus the
// remote-reported latency, in milliseconds) and returns the new clock
// offset. The integral term is subtracted, not added: flipping its
// sign would turn the loop from self-correcting to self-reinforcing.
func (p *PIDController) Update(errSample int32) int32 {
	p.cumulError += errSample
	dError := errSample - p.lastError
	p.lastError = errSample

	offset := p.Kp*float64(errSample) - p.Ki*float64(p.cumulError) + p.Kd*float64(dError)
	p.lastOffset = int32(offset)
	return p.lastOffset
}

// Offset returns the clock offset computed by the most recent Update
// call, for metrics reporting between updates.
func (p *PIDController) Offset() int32 { return p.lastOffset }
