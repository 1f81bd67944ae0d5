// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

// Global line numbers for the U3's 20 digital I/O lines. FIO0-7 are 0-7,
// EIO0-7 are 8-15, and CIO0-3 are 16-19.
const (
	FIO0 = iota
	FIO1
	FIO2
	FIO3
	FIO4
	FIO5
	FIO6
	FIO7
	EIO0
	EIO1
	EIO2
	EIO3
	EIO4
	EIO5
	EIO6
	EIO7
	CIO0
	CIO1
	CIO2
	CIO3
)

// ToggleLED toggles the status LED on and off.
func (d *U3) ToggleLED() error {
	if _, err := d.GetFeedback(NewLED(!d.ledState)); err != nil {
		return err
	}
	d.ledState = !d.ledState
	return nil
}

// SetFIOState sets the state of one FIO line and also sets its direction to
// output. This works on all digital I/O lines (FIO0-CIO3), so it is
// equivalent to SetDOState.
func (d *U3) SetFIOState(fioNum int, state bool) error {
	_, err := d.GetFeedback(
		NewBitDirWrite(fioNum, true),
		NewBitStateWrite(fioNum, state),
	)
	return err
}

// GetFIOState reads the state of one FIO line without changing its
// direction. This works on all digital I/O lines (FIO0-CIO3), so it is
// equivalent to GetDIOState.
func (d *U3) GetFIOState(fioNum int) (byte, error) {
	readings, err := d.GetFeedback(NewBitStateRead(fioNum))
	if err != nil {
		return 0, err
	}
	return readings[0].(byte), nil
}

// SetDOState sets the state of one digital I/O line and also sets its
// direction to output.
func (d *U3) SetDOState(ioNum int, state bool) error {
	_, err := d.GetFeedback(
		NewBitDirWrite(ioNum, true),
		NewBitStateWrite(ioNum, state),
	)
	return err
}

// GetDIState reads the state of one digital I/O line and also sets its
// direction to input.
func (d *U3) GetDIState(ioNum int) (byte, error) {
	readings, err := d.GetFeedback(
		NewBitDirWrite(ioNum, false),
		NewBitStateRead(ioNum),
	)
	if err != nil {
		return 0, err
	}
	return readings[1].(byte), nil
}

// GetDIOState reads the state of one digital I/O line without changing its
// direction.
func (d *U3) GetDIOState(ioNum int) (byte, error) {
	readings, err := d.GetFeedback(NewBitStateRead(ioNum))
	if err != nil {
		return 0, err
	}
	return readings[0].(byte), nil
}

// ConfigAnalog adds the given lines, which must be in the range FIO0-EIO7,
// to the set of analog inputs. Bit positions already set in the FIOAnalog
// and EIOAnalog bitfields stay set. Line numbers outside FIO0-EIO7 are
// ignored since CIO lines are digital only.
func (d *U3) ConfigAnalog(lines ...int) (*IOConfig, error) {
	current, err := d.ConfigIO(ConfigIOOptions{})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return current, nil
	}

	fioAnalog, eioAnalog := current.FIOAnalog, current.EIOAnalog
	for _, line := range lines {
		switch {
		case line > EIO7 || line < FIO0:
			// CIO lines have no analog mode.
		case line < EIO0:
			fioAnalog |= 1 << uint(line)
		default:
			eioAnalog |= 1 << uint(line-EIO0)
		}
	}
	return d.ConfigIO(ConfigIOOptions{
		FIOAnalog: Byte(fioAnalog),
		EIOAnalog: Byte(eioAnalog),
	})
}

// ConfigDigital is the converse of ConfigAnalog. It removes the given lines,
// which must be in the range FIO0-EIO7, from the set of analog inputs,
// returning them to digital operation.
func (d *U3) ConfigDigital(lines ...int) (*IOConfig, error) {
	current, err := d.ConfigIO(ConfigIOOptions{})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return current, nil
	}

	fioAnalog, eioAnalog := current.FIOAnalog, current.EIOAnalog
	for _, line := range lines {
		switch {
		case line > EIO7 || line < FIO0:
			// CIO lines have no analog mode.
		case line < EIO0:
			fioAnalog &^= 1 << uint(line)
		default:
			eioAnalog &^= 1 << uint(line-EIO0)
		}
	}
	return d.ConfigIO(ConfigIOOptions{
		FIOAnalog: Byte(fioAnalog),
		EIOAnalog: Byte(eioAnalog),
	})
}
