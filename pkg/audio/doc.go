// Package audio is an umbrella for audio-related sub-packages.
//
//   - wave: WAV/PCM decoding, resampling, validation and segmentation
package audio
