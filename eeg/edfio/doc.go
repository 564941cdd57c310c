// Package edfio reads EDF/EDF+ recordings and exports recordings as EDF.
//
// Samples are held in volts. Channels with a uV or mV physical dimension
// are rescaled on read, and EEG and EOG channels are written in uV.
package edfio
