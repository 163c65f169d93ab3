/*
 * doc.go, part of amplus-digital-twin.
 *
 * Copyright (C) 2019 Diamond Light Source and Rosalind Franklin Institute
 *
 * This code is distributed under the GPLv3 license, a copy of
 * which is included in the root directory of this package.
 *
 */

/*
Package amplus holds the dataset model shared by every on-disk format used
to persist simulated electron-microscopy phantoms: a 3-D stack of frames
with a scalar element type, one global pixel size, and per-frame
acquisition metadata (tilt angle, stage position, beam shift).

The actual codecs live in the subpackages mrc, nxtomo and imageseq. They
all implement the Writer and Reader contracts defined here, so the
simulation stages and the export tool never care which format they are
talking to. Use the dataio subpackage to obtain a Writer or a Reader from
a filename; the extension decides the format.
*/
package amplus
