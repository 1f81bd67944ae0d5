// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

// Uncalibrated conversion constants from the U3 datasheet. Used whenever
// the calibration constants haven't been read from the device.
const (
	nominalLVSESlope   = 0.000037231
	nominalLVDiffSlope = 0.000074463
	nominalLVDiffBias  = -2.44
	nominalHVSlope     = 0.000314
	nominalHVBias      = -10.3
	nominalTempSlope   = 0.013021
	nominalDACSlope    = 51.717
)

// CalibrationData holds the calibration constants read from the first five
// blocks of the U3's calibration memory. See section 2.6.2 of the U3 user's
// guide for how each constant is applied.
type CalibrationData struct {
	LVSESlope    float64 `json:"lv_se_slope"`
	LVSEOffset   float64 `json:"lv_se_offset"`
	LVDiffSlope  float64 `json:"lv_diff_slope"`
	LVDiffOffset float64 `json:"lv_diff_offset"`
	DAC0Slope    float64 `json:"dac0_slope"`
	DAC0Offset   float64 `json:"dac0_offset"`
	DAC1Slope    float64 `json:"dac1_slope"`
	DAC1Offset   float64 `json:"dac1_offset"`
	TempSlope    float64 `json:"temp_slope"`
	VRefAtCal    float64 `json:"vref_at_cal"`
	VRef15AtCal  float64 `json:"vref_1_5_at_cal"`
	VRegAtCal    float64 `json:"vreg_at_cal"`
	// High-voltage constants only exist on U3-HV hardware 1.30 and later.
	HVAINSlope     [4]float64 `json:"hv_ain_slope"`
	HVAINOffset    [4]float64 `json:"hv_ain_offset"`
	HasHighVoltage bool       `json:"has_high_voltage"`
}

// BinaryToCalibratedAnalogVoltage converts the raw binary value returned by
// an AIN feedback command into a voltage. When calibration constants have
// been read with ReadCalibrationData they are applied; otherwise the nominal
// constants from the datasheet are used. Differential readings on
// high-voltage channels aren't possible, so that combination returns
// ErrHighVoltageDifferential.
func (d *U3) BinaryToCalibratedAnalogVoltage(
	bits uint16,
	isLowVoltage bool,
	isSingleEnded bool,
	isSpecialSetting bool,
	channelNumber int,
) (float64, error) {
	cal := d.CalData
	v := float64(bits)
	if isLowVoltage {
		switch {
		case isSingleEnded && !isSpecialSetting:
			if cal != nil {
				return v*cal.LVSESlope + cal.LVSEOffset, nil
			}
			return v * nominalLVSESlope, nil
		case isSpecialSetting:
			if cal != nil {
				return v*cal.LVDiffSlope + cal.LVDiffOffset + cal.VRefAtCal, nil
			}
			return v * nominalLVDiffSlope, nil
		default:
			if cal != nil {
				return v*cal.LVDiffSlope + cal.LVDiffOffset, nil
			}
			return v*nominalLVDiffSlope + nominalLVDiffBias, nil
		}
	}
	ch := channelNumber & 3
	switch {
	case isSingleEnded && !isSpecialSetting:
		if cal != nil && cal.HasHighVoltage {
			return v*cal.HVAINSlope[ch] + cal.HVAINOffset[ch], nil
		}
		return v*nominalHVSlope + nominalHVBias, nil
	case isSpecialSetting:
		if cal != nil && cal.HasHighVoltage {
			diff := v*cal.LVDiffSlope + cal.LVDiffOffset + cal.VRefAtCal
			return diff*cal.HVAINSlope[ch]/cal.LVSESlope + cal.HVAINOffset[ch], nil
		}
		return v*nominalLVDiffSlope*(nominalHVSlope/nominalLVSESlope) + nominalHVBias, nil
	default:
		return 0, ErrHighVoltageDifferential
	}
}

// BinaryToCalibratedAnalogTemperature converts the raw binary value from
// reading channel 30 into a temperature in Kelvin.
func (d *U3) BinaryToCalibratedAnalogTemperature(bits uint16) float64 {
	if d.CalData != nil {
		return d.CalData.TempSlope * float64(bits)
	}
	return float64(bits) * nominalTempSlope
}

// VoltageToDACBits converts a desired output voltage into the binary value
// for the DAC8 and DAC16 feedback commands. Set is16Bits when the value will
// be sent with a DAC16 command.
func (d *U3) VoltageToDACBits(volts float64, dacNumber int, is16Bits bool) int {
	var bits float64
	if d.CalData != nil {
		if dacNumber&1 == 0 {
			bits = volts*d.CalData.DAC0Slope + d.CalData.DAC0Offset
		} else {
			bits = volts*d.CalData.DAC1Slope + d.CalData.DAC1Offset
		}
	} else {
		bits = volts * nominalDACSlope
	}
	if is16Bits {
		bits *= 256
	}
	return int(bits)
}

// GetAIN reads one analog input and returns the calibrated voltage. Pass 31
// as the negative channel for a single-ended reading, 32 for the special
// 0-3.6V range, or another channel number for a differential reading.
func (d *U3) GetAIN(posChannel, negChannel int, longSettle, quickSample bool) (float64, error) {
	isSpecial := false
	if negChannel == 32 {
		isSpecial = true
		negChannel = 30
	}

	ain, err := NewAIN(posChannel, negChannel, longSettle, quickSample)
	if err != nil {
		return 0, err
	}
	readings, err := d.GetFeedback(ain)
	if err != nil {
		return 0, err
	}
	bits := readings[0].(uint16)

	singleEnded := negChannel == 31
	lvChannel := true
	if d.IsHighVoltage() && posChannel < 4 {
		lvChannel = false
	}

	return d.BinaryToCalibratedAnalogVoltage(bits, lvChannel, singleEnded, isSpecial, posChannel)
}

// GetTemperature reads the internal temperature sensor and returns the
// temperature in Kelvin. The calibration constants are read first if they
// haven't been already, since the nominal conversion can be off by 10 K.
func (d *U3) GetTemperature() (float64, error) {
	if d.CalData == nil {
		if _, err := d.ReadCalibrationData(); err != nil {
			return 0, err
		}
	}
	ain, err := NewAIN(30, 31, false, false)
	if err != nil {
		return 0, err
	}
	readings, err := d.GetFeedback(ain)
	if err != nil {
		return 0, err
	}
	return d.BinaryToCalibratedAnalogTemperature(readings[0].(uint16)), nil
}
