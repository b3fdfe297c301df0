// Package answer turns a question into a grounded, streamed answer.
//
// An Answerer retrieves the chunks closest to the question, places them in a
// numbered context block, and streams the generator's reply. The stream
// always starts with a sources event listing the URLs of exactly the chunks
// in the context, followed by token events in generation order and a final
// done event:
//
//	for event, err := range answerer.Answer(ctx, answer.Request{Query: q}) {
//	    if err != nil {
//	        return err
//	    }
//	    switch event.Type {
//	    case answer.EventSources:
//	        showSources(event.Sources)
//	    case answer.EventToken:
//	        fmt.Print(event.Content)
//	    }
//	}
//
// The consumer may stop ranging at any point; generation is cancelled and
// nothing is recorded. When retrieval fails the answer is still produced,
// without context and with an empty sources event.
package answer
