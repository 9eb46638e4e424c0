package debounce

// Reader reads the instantaneous level of a named digital input.
type Reader interface {
	ReadDigitalInput(channel string) (bool, error)
}

// Input couples a named digital input with its debounce window.
type Input struct {
	Channel string
	window  Window
}

func NewInput(channel string) *Input {
	return &Input{Channel: channel}
}

// Poll reads one sample from r into the window. On read failure the window is left untouched.
func (in *Input) Poll(r Reader) error {
	level, err := r.ReadDigitalInput(in.Channel)
	if err != nil {
		return err
	}
	in.window.Add(level)
	return nil
}

// Prime fills the whole window from a single read so the first vote reflects the current level.
func (in *Input) Prime(r Reader) error {
	level, err := r.ReadDigitalInput(in.Channel)
	if err != nil {
		return err
	}
	in.window.Fill(level)
	return nil
}

// High returns the debounced level.
func (in *Input) High() bool {
	return in.window.MajorityHigh()
}
